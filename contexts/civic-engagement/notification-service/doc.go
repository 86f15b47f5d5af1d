// Package notificationservice stores notifications derived from engagement
// events, primarily petition threshold crossings. The worker consumes
// engagement.threshold_crossed from the bus with replay-safe dedup and
// persists inbox rows served by the HTTP surface.
package notificationservice
