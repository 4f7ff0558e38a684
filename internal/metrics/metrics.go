package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Verifications counts verification pipeline runs by terminal outcome.
var Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "faceattend_verifications_total",
	Help: "Verification pipeline runs by terminal outcome.",
}, []string{"outcome"})

// Uploads counts capture photo uploads by result.
var Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "faceattend_capture_uploads_total",
	Help: "Capture photo uploads by result.",
}, []string{"result"})
