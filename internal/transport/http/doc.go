// Package http implements the HTTP surface of the dashboard: the page, the
// JSON API, chart images, downloads and the live websocket channel.
//
// Handlers stay thin. They resolve the browser session, parse the request,
// call the dashboard service and translate its errors into RFC 7807 problem
// responses through the shared error handler.
//
// # Sessions
//
// Every route under the session middleware carries a session id taken from
// the session cookie. Unknown or expired ids start a fresh session with the
// default filter state and the cookie is reissued.
//
// # Routes
//
//	GET  /                          dashboard page
//	POST /filters/toggle            flip the sidebar, redirect to /
//	GET  /api/report                report JSON for the session
//	GET  /api/filters               current filter state
//	PUT  /api/filters               partial filter update
//	POST /api/filters/toggle        flip the sidebar
//	GET  /api/options               dropdown values and year bounds
//	GET  /api/datasets              loaded tables
//	GET  /api/charts/{panel}.{ext}  panel image, svg or png
//	GET  /api/export/sales.csv      filtered sales table
//	GET  /api/export/report.xlsx    workbook of every view
//	GET  /ws                        live channel
package http
