package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/sgaunet/s3ingest/pkg/classify"
	"github.com/sgaunet/s3ingest/pkg/dto"
	"github.com/sgaunet/s3ingest/pkg/health"
	"github.com/sgaunet/s3ingest/pkg/ingest"
	"github.com/sgaunet/s3ingest/pkg/ledger"
	"github.com/sgaunet/s3ingest/pkg/s3svc"
)

// TestConnectionHandler reports whether the object store answers with the configured credentials.
// A failed test is a successful request with success=false.
func (a *App) TestConnectionHandler(w http.ResponseWriter, r *http.Request) {
	msg, err := a.deps.Objects.TestConnection(r.Context())
	if err != nil {
		a.writeJSON(w, http.StatusOK, dto.ConnectionResult{Success: false, Message: err.Error()})
		return
	}
	a.writeJSON(w, http.StatusOK, dto.ConnectionResult{Success: true, Message: msg})
}

// InspectHandler fetches ?key= and shows how it would be mapped, without storing anything.
func (a *App) InspectHandler(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		a.writeError(w, r, fmt.Errorf("%w: key is required", ErrBadRequest))
		return
	}
	payload, err := a.deps.Objects.GetObject(r.Context(), key)
	if err != nil {
		if s3svc.StatusCodeOf(err) == http.StatusNotFound {
			a.writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
			return
		}
		a.writeError(w, r, err)
		return
	}
	kind := dto.KindDiagnostic
	if classify.IsBugReport(key) {
		kind = dto.KindBugReport
	}
	res, err := ingest.Inspect(key, kind, payload)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, res)
}

// ListBugReportsHandler returns a keyset page of bug reports: ?status=&after=&limit=.
func (a *App) ListBugReportsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := q.Get("status")
	if status != "" && !dto.ValidReportStatus(status) {
		a.writeError(w, r, fmt.Errorf("%w: unknown status %q", ErrBadRequest, status))
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var after int64
	if raw := q.Get("after"); raw != "" {
		after, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || after < 0 {
			a.writeError(w, r, fmt.Errorf("%w: after must be a report id", ErrBadRequest))
			return
		}
	}

	page, err := a.deps.Records.ListBugReports(r.Context(), dto.BugReportFilter{
		Status: status,
		After:  after,
		Limit:  limit,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, page)
}

// UpdateBugReportHandler changes the status and/or admin notes of a report.
func (a *App) UpdateBugReportHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: invalid id", ErrBadRequest))
		return
	}
	var upd dto.BugReportUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		a.writeError(w, r, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if upd.Status == nil && upd.AdminNotes == nil {
		a.writeError(w, r, fmt.Errorf("%w: nothing to update", ErrBadRequest))
		return
	}
	if upd.Status != nil && !dto.ValidReportStatus(*upd.Status) {
		a.writeError(w, r, fmt.Errorf("%w: unknown status %q", ErrBadRequest, *upd.Status))
		return
	}

	report, err := a.deps.Records.UpdateBugReport(r.Context(), id, upd)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, report)
}

// ClearLedgerHandler empties the ledgers named by ?scope=files|directories|all (default all).
func (a *App) ClearLedgerHandler(w http.ResponseWriter, r *http.Request) {
	var scope ledger.Scope
	switch r.URL.Query().Get("scope") {
	case "files":
		scope = ledger.ScopeFiles
	case "directories":
		scope = ledger.ScopeDirectories
	case "", "all":
		scope = ledger.ScopeAll
	default:
		a.writeError(w, r, fmt.Errorf("%w: scope must be files, directories or all", ErrBadRequest))
		return
	}
	res, err := a.deps.Ledger.Clear(r.Context(), scope)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, res)
}

// HealthHandler answers 503 while a dependency check fails.
func (a *App) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	info := a.deps.Health.GetHealthInfo()
	status := http.StatusOK
	if info.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	a.writeJSON(w, status, info)
}
