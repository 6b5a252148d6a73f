package app

import "net/http"

// initRouter initializes the router of the App
func (a *App) initRouter() {
	api := a.router.PathPrefix("/api").Subrouter()

	scan := api.PathPrefix("/scan").Subrouter()
	scan.HandleFunc("/start", a.StartScanHandler).Methods(http.MethodPost)
	scan.HandleFunc("/batch", a.ProcessBatchHandler).Methods(http.MethodPost)
	scan.HandleFunc("/progress", a.ProgressHandler).Methods(http.MethodGet)
	scan.HandleFunc("/cancel", a.CancelHandler).Methods(http.MethodPost)
	scan.HandleFunc("/pause", a.PauseHandler).Methods(http.MethodPost)
	scan.HandleFunc("/resume", a.ResumeHandler).Methods(http.MethodPost)
	scan.HandleFunc("/full", a.FullScanHandler).Methods(http.MethodPost)
	scan.HandleFunc("/dead-letters", a.DeadLettersHandler).Methods(http.MethodGet)

	api.HandleFunc("/connection/test", a.TestConnectionHandler).Methods(http.MethodPost)
	api.HandleFunc("/inspect", a.InspectHandler).Methods(http.MethodGet)
	api.HandleFunc("/bug-reports", a.ListBugReportsHandler).Methods(http.MethodGet)
	api.HandleFunc("/bug-reports/{id:[0-9]+}", a.UpdateBugReportHandler).Methods(http.MethodPatch)
	api.HandleFunc("/ledger/clear", a.ClearLedgerHandler).Methods(http.MethodPost)

	a.router.HandleFunc("/healthz", a.HealthHandler).Methods(http.MethodGet)
}
