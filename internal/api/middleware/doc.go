// Package middleware holds the gin middleware shared by the HTTP surface.
package middleware
