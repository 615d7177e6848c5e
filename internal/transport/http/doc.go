// Package http implements the HTTP handlers of the DOL analysis service.
// Handlers stay thin: they parse and validate the request, call the
// analysis service and render the result.
//
// # Routes
//
//	POST   /api/sessions                              create a session
//	DELETE /api/sessions/{id}                         drop a session
//	POST   /api/sessions/{id}/uploads/{klaim|os}      upload a workbook (multipart "file")
//	GET    /api/sessions/{id}/options                 filter bounds
//	POST   /api/sessions/{id}/query                   filtered rows, summary and charts
//	POST   /api/sessions/{id}/export                  download as xlsx or csv
//	GET    /api/sessions/{id}/export?format=csv&...   same, filters in the query string
//	GET    /api/health, /api/health/ready, /api/health/live, /api/version
//	GET    /api/stats
//	POST   /api/log/client
//	GET    /ws?session={id}                           session event stream
//
// # Error Handling
//
// Service errors are mapped to APIErrors and rendered by the shared
// ErrorHandler as RFC 7807 problem details:
//
//	{
//	    "type": "/errors/data/schema",
//	    "title": "Unprocessable Entity",
//	    "status": 422,
//	    "detail": "Required column \"CLAIM NO\" is missing",
//	    "instance": "/api/sessions/3f.../uploads/klaim",
//	    "stage": "reconcile",
//	    "column": "CLAIM NO",
//	    "trace_id": "..."
//	}
package http
