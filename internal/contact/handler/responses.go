package handler

import (
	"linkage/internal/contact/service"
	id "linkage/pkg/domain"
)

// IdentifyResponse wraps the consolidated view in the envelope the public API
// has always used. The "primaryContatctId" spelling is part of the published
// contract and must not be corrected.
type IdentifyResponse struct {
	Contact ContactPayload `json:"contact"`
}

type ContactPayload struct {
	PrimaryContactID    id.ContactID   `json:"primaryContatctId"`
	Emails              []string       `json:"emails"`
	PhoneNumbers        []string       `json:"phoneNumbers"`
	SecondaryContactIDs []id.ContactID `json:"secondaryContactIds"`
}

func toIdentifyResponse(res *service.Resolution) IdentifyResponse {
	emails := res.Emails
	if emails == nil {
		emails = []string{}
	}
	phones := res.PhoneNumbers
	if phones == nil {
		phones = []string{}
	}
	secondaries := res.SecondaryIDs
	if secondaries == nil {
		secondaries = []id.ContactID{}
	}
	return IdentifyResponse{
		Contact: ContactPayload{
			PrimaryContactID:    res.PrimaryID,
			Emails:              emails,
			PhoneNumbers:        phones,
			SecondaryContactIDs: secondaries,
		},
	}
}
