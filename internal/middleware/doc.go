// Package middleware provides HTTP middleware for the file dashboard.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
//   - Response compression (gzip)
package middleware
