// Package services holds the business logic of the enrollment engine.
//
// Services defined in this package:
// - EnrollmentService: the enrollment coordinator (enroll, confirm/cancel, rosters)
// - OfferingService: offering reads and administration, driving cache invalidation
// - OfferingCache: the active offerings snapshot and last-visited pointers
// - CapacityLedger: seat accounting inside a gateway transaction
package services

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("github.com/yigit/enrollment/internal/app/services")
