// Package handler implements the HTTP handlers of the student service and the
// middleware wrapped around them.
//
// Handlers never see breaker errors. The guarded routes always answer 200 with
// either the stored data or its fallback, so a client cannot tell a missing
// student from a failing one.
package handler
