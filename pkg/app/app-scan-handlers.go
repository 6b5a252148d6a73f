package app

import (
	"fmt"
	"net/http"
	"strconv"
)

// StartScanHandler discovers the objects to ingest and creates a new scan.
func (a *App) StartScanHandler(w http.ResponseWriter, r *http.Request) {
	res, err := a.deps.Scanner.Start(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, res)
}

// ProcessBatchHandler runs one batch of the current scan.
func (a *App) ProcessBatchHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := a.deps.Scanner.ProcessNextBatch(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, snap)
}

// ProgressHandler returns the progress of the current scan, 204 when none was started.
func (a *App) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	snap, ok, err := a.deps.Scanner.Progress(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	a.writeJSON(w, http.StatusOK, snap)
}

type cancelResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// CancelHandler stops the current scan for good.
func (a *App) CancelHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := a.deps.Scanner.Cancel(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, cancelResponse{
		Success: true,
		Message: "Scan cancelled",
		Status:  string(snap.Status),
	})
}

func (a *App) PauseHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := a.deps.Scanner.Pause(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, snap)
}

func (a *App) ResumeHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := a.deps.Scanner.Resume(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, snap)
}

// FullScanHandler ingests every new object of the root listing in one request.
func (a *App) FullScanHandler(w http.ResponseWriter, r *http.Request) {
	res, err := a.deps.Scanner.RunFullScan(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, res)
}

// DeadLettersHandler lists the items that failed, optionally for one scan_id.
func (a *App) DeadLettersHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	dls, err := a.deps.Scanner.DeadLetters(r.Context(), r.URL.Query().Get("scan_id"), limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, dls)
}

// intParam parses an optional integer query parameter. Missing means 0.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrBadRequest, name)
	}
	return v, nil
}
