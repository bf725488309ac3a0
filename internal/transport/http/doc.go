// Package http contains the HTTP handlers of the planning API.
package http
