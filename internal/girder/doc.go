// Package girder provides an HTTP client for the Girder REST API as used by
// the HistoQC plugin.
//
// # Overview
//
// The client covers the handful of endpoints the HistoQC widget needs:
//
//   - GET  /folder?parentId=&parentType=folder[&name=]  list child folders
//   - POST /folder/{id}/histoqc                          trigger a HistoQC job
//   - GET  /job/{id}                                     job status and full log
//   - GET  /folder/{id}/histoqc                          per-image output manifest
//   - GET  /item/{id}/download                           grouped results TSV
//
// Thumbnail and item links are built locally with ThumbnailURL and ItemURL.
//
// # Authentication
//
// Every request carries a Girder-Token header obtained from the TokenSource
// passed to NewClient. The source is consulted on each request so a token
// refreshed on disk or in the environment is picked up without restarting.
// Obtaining the token is left to the operator.
//
// # Error Handling
//
//   - *NetworkError: the request never completed (dial, timeout, reset)
//   - *RequestError: non-2xx status; StatusCode and IsUnauthorized inspect it
//   - ErrMalformedResponse: undecodable body or a missing required field
//
// The client never retries. Callers decide whether a failure stops the
// workflow; the widget logs and stops.
//
// # Job Status
//
// Girder reports job status as an integer. Anything above TerminalThreshold
// (2, running) means the job is finished, whether it succeeded or not.
package girder
