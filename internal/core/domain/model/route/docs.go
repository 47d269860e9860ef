// Package route implements the route aggregate: an ordered batch of
// delivery stops worked by one driver on one calendar day.
//
// The route owns the driver-offer cascade state: which driver currently
// holds a time-bounded offer, which drivers were already tried (the
// exclusion set), the signed offer token, and the classified escalation
// reason once the candidate pool is exhausted. Concurrent cascade steps
// are serialized by single-row conditional updates in the repository; the
// aggregate's transition methods validate state for the in-memory copy.
package route
