// Package platform adapts the external dispatch platform's inbound
// surface: webhook payload normalization and driver SMS reply
// classification. It hides the provider's photo and timestamp encodings
// behind one canonical event value.
package platform

import (
	"fmt"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// Trigger is a canonical webhook trigger name.
type Trigger string

const (
	// TriggerStarted: the worker started driving to the stop.
	TriggerStarted Trigger = "started"

	// TriggerArrival: the worker arrived at the stop.
	TriggerArrival Trigger = "arrival"

	// TriggerCompleted: the stop was completed, with evidence attached.
	TriggerCompleted Trigger = "completed"

	// TriggerFailed: the stop could not be completed.
	TriggerFailed Trigger = "failed"
)

var (
	// ErrMissingTaskReference is returned when a payload identifies no task.
	ErrMissingTaskReference = errs.NewValueIsRequiredError("task reference")
)

// Event is the canonical internal form of a webhook payload. Optional
// provider fields normalize to nils; downstream logic decides materiality.
type Event struct {
	Trigger     Trigger
	TaskShortID string
	Time        time.Time

	// PhotoURL is the primary completion photo; PhotoGallery is the full
	// ordered list, primary included.
	PhotoURL     *string
	PhotoGallery []string

	// WorkerName is the worker-supplied display name, when present.
	WorkerName *string

	DriveDistanceMiles *float64
	DriveTimeMinutes   *float64
}

// Normalizer converts raw webhook payloads into canonical events.
// The CDN base URL turns the platform's photo upload ids into fetchable
// image URLs.
type Normalizer struct {
	cdnBaseURL string
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(cdnBaseURL string) (Normalizer, error) {
	if cdnBaseURL == "" {
		return Normalizer{}, errs.NewValueIsRequiredError("cdn base url")
	}
	return Normalizer{cdnBaseURL: strings.TrimRight(cdnBaseURL, "/")}, nil
}

// Normalize converts a webhook payload into a canonical Event.
//
// It never errors on missing optional fields. It errors only when the
// payload references no task or carries an unknown trigger.
func (n Normalizer) Normalize(payload WebhookPayload) (Event, error) {
	trigger, err := parseTrigger(payload.TriggerName)
	if err != nil {
		return Event{}, err
	}

	shortID := ""
	if payload.Data.Task != nil {
		shortID = payload.Data.Task.ShortID
	}
	if shortID == "" {
		return Event{}, ErrMissingTaskReference
	}

	event := Event{
		Trigger:     trigger,
		TaskShortID: shortID,
		Time:        kernel.TimeFromEpoch(payload.Time),
	}

	if name := workerSuppliedName(payload); name != "" {
		event.WorkerName = &name
	}

	details := payload.Data.Task.CompletionDetails
	if trigger == TriggerCompleted && details != nil {
		gallery := n.photoURLs(details)
		if len(gallery) > 0 {
			event.PhotoURL = &gallery[0]
			event.PhotoGallery = gallery
		}
		if details.Time != nil {
			event.Time = kernel.TimeFromEpoch(*details.Time)
		}
		event.DriveDistanceMiles = details.DriveDistance
		event.DriveTimeMinutes = details.DriveTime
	}

	return event, nil
}

// photoURLs extracts photo upload ids from whichever of the three shapes
// the payload carries and maps them to CDN URLs. Precedence follows the
// platform's own client behavior: single id, then id list, then raw
// attachments.
func (n Normalizer) photoURLs(details *CompletionDetails) []string {
	var ids []string
	switch {
	case details.PhotoUploadID != nil && *details.PhotoUploadID != "":
		ids = []string{*details.PhotoUploadID}
	case len(details.PhotoUploadIDs) > 0:
		ids = details.PhotoUploadIDs
	default:
		for _, a := range details.Attachments {
			if a.UploadID != "" {
				ids = append(ids, a.UploadID)
			}
		}
	}

	urls := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		urls = append(urls, fmt.Sprintf("%s/%s/800x.png", n.cdnBaseURL, id))
	}
	return urls
}

func workerSuppliedName(payload WebhookPayload) string {
	if payload.Data.Worker != nil && payload.Data.Worker.Name != "" {
		return payload.Data.Worker.Name
	}
	if payload.Data.Task != nil && payload.Data.Task.Worker != nil {
		return payload.Data.Task.Worker.Name
	}
	return ""
}

func parseTrigger(name string) (Trigger, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "started":
		return TriggerStarted, nil
	case "arrival", "arrived":
		return TriggerArrival, nil
	case "completed":
		return TriggerCompleted, nil
	case "failed":
		return TriggerFailed, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("trigger name",
			fmt.Errorf("%q is not a known trigger", name))
	}
}

// WorkerDisplayName resolves the name shown to customers: the
// worker-supplied name wins, then the assigned driver's full name, then a
// generic fallback.
func WorkerDisplayName(eventName, assignedName *string) string {
	if eventName != nil && *eventName != "" {
		return *eventName
	}
	if assignedName != nil && *assignedName != "" {
		return *assignedName
	}
	return "your driver"
}
