package http

import (
	"qctracker/frontend/backup"
	"qctracker/frontend/help"
	"qctracker/frontend/reports"
	"qctracker/frontend/shipments"

	"github.com/go-chi/chi/v5"
)

// RegisterDashboardRoutes registers the HTML screens.
func (s *Server) RegisterDashboardRoutes() {
	s.router.Get("/", shipments.DashboardPageQueryHandler(s.State))
	s.router.Get("/help", help.HelpPageQueryHandler())
}

// RegisterShipmentRoutes registers the shipment and QC form API.
func (s *Server) RegisterShipmentRoutes(r chi.Router) chi.Router {
	r.Get("/session", shipments.SessionQueryHandler(s.State))
	r.Delete("/session/error", shipments.ClearSessionErrorCommandHandler(s.State))

	r.Get("/shipments", shipments.ListShipmentsQueryHandler(s.State))
	r.Post("/shipments", shipments.CreateShipmentCommandHandler(s.State))
	r.Route("/shipments/{id}", func(r chi.Router) {
		r.Get("/", shipments.GetShipmentQueryHandler(s.State))
		r.Get("/history", shipments.ShipmentHistoryQueryHandler(s.State))
		r.Put("/level1", shipments.Level1CommandHandler(s.State, false))
		r.Put("/level1/draft", shipments.Level1CommandHandler(s.State, true))
		r.Put("/level2", shipments.Level2CommandHandler(s.State, false))
		r.Put("/level2/draft", shipments.Level2CommandHandler(s.State, true))
		r.Get("/report.pdf", reports.InspectionReportQueryHandler(s.State))
	})
	return r
}

// RegisterBackupRoutes registers whole-store backup and restore.
func (s *Server) RegisterBackupRoutes(r chi.Router) chi.Router {
	r.Get("/backup", backup.BackupQueryHandler(s.State))
	r.Post("/restore", backup.RestoreCommandHandler(s.State))
	return r
}
