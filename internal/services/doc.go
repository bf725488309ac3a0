// Package services holds the application services that sit between the HTTP
// transport and the planning pipeline.
package services
