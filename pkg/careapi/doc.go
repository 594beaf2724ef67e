// Package careapi provides typed calls to the care coordination service:
// patients and their guardians, the personality questionnaire, caregiver
// search and matching, care plans, messaging and the patient dashboard.
//
// Every call goes through a [client.Client], so reads are cached with a
// per-resource TTL and retried on transient statuses, and mutations
// invalidate the cached reads they affect. Matching, scoring and plan
// generation happen on the server; this package only moves data.
//
// Identifiers are validated before any request is made. An empty or unsafe
// ID fails with INVALID_INPUT.
//
// # Usage
//
//	api := careapi.New(c)
//	matches, err := api.ListMatches(ctx, patientID, false)
//	if err != nil {
//	    return err
//	}
//	sel, err := api.SelectCaregiver(ctx, patientID, matches[0].Caregiver.ID)
package careapi
