/*
Package monitoring provides Prometheus metrics for the HTTP surface, the
dispatcher and the chat transport.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Metrics implements dispatch.Recorder
	dispatcher := dispatch.New(dispatch.Options{Recorder: metrics})

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
