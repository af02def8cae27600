package visits

import (
	"github.com/cbc-energia/fieldops-backend/pkg/enums"
	pkgerrors "github.com/cbc-energia/fieldops-backend/pkg/errors"
)

// Metadata is a closed set of per-type attribute variants. Exactly one
// variant may be set, and it must match the record type, so a sale
// attempt can never carry inspection attributes.
type Metadata struct {
	Prospection  *ProspectionDetails  `json:"prospection,omitempty"`
	SaleAttempt  *SaleAttemptDetails  `json:"saleAttempt,omitempty"`
	Inspection   *InspectionDetails   `json:"inspection,omitempty"`
	Installation *InstallationDetails `json:"installation,omitempty"`
}

// ProspectionDetails is filled during door-to-door prospecting.
type ProspectionDetails struct {
	ClientName  string `json:"clientName,omitempty"`
	ContactInfo string `json:"contactInfo,omitempty"`
	Email       string `json:"email,omitempty"`
	FacadePhoto string `json:"facadePhoto,omitempty"`
}

// SaleAttemptDetails is filled by the sales leader closing flow.
type SaleAttemptDetails struct {
	ClientName  string `json:"clientName,omitempty"`
	ContactInfo string `json:"contactInfo,omitempty"`
	Email       string `json:"email,omitempty"`
}

// InspectionDetails is the pre-installation site survey checklist.
type InspectionDetails struct {
	RoofType           string `json:"roofType,omitempty"`
	ElectricalStandard string `json:"electricalStandard,omitempty"`
	Grounding          string `json:"grounding,omitempty"`
	Structure          string `json:"structure,omitempty"`
}

// InstallationDetails is filled by the installation crew on completion.
type InstallationDetails struct {
	Structure   string `json:"structure,omitempty"`
	Grounding   string `json:"grounding,omitempty"`
	FacadePhoto string `json:"facadePhoto,omitempty"`
}

// Validate checks that the populated variant agrees with the record type.
// An empty metadata bag is always acceptable.
func (m Metadata) Validate(visitType enums.VisitType) error {
	populated := 0
	var mismatch bool
	if m.Prospection != nil {
		populated++
		mismatch = mismatch || visitType != enums.VisitProspection
	}
	if m.SaleAttempt != nil {
		populated++
		mismatch = mismatch || visitType != enums.VisitSaleAttempt
	}
	if m.Inspection != nil {
		populated++
		mismatch = mismatch || visitType != enums.VisitInspection
	}
	if m.Installation != nil {
		populated++
		mismatch = mismatch || visitType != enums.VisitInstallation
	}

	if populated > 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "metadata must carry a single variant")
	}
	if mismatch {
		return pkgerrors.New(pkgerrors.CodeValidation, "metadata variant does not match visit type "+visitType.String())
	}
	return nil
}

// Merge lays overlay on top of the draft, field by field. Multi-step
// forms capture attributes across several submissions (a facade photo
// first, client contact later); a later step must not erase an earlier
// one, so empty overlay fields keep the draft value.
func Merge(draft, overlay Metadata) Metadata {
	out := draft

	if overlay.Prospection != nil {
		merged := ProspectionDetails{}
		if draft.Prospection != nil {
			merged = *draft.Prospection
		}
		mergeField(&merged.ClientName, overlay.Prospection.ClientName)
		mergeField(&merged.ContactInfo, overlay.Prospection.ContactInfo)
		mergeField(&merged.Email, overlay.Prospection.Email)
		mergeField(&merged.FacadePhoto, overlay.Prospection.FacadePhoto)
		out.Prospection = &merged
	}

	if overlay.SaleAttempt != nil {
		merged := SaleAttemptDetails{}
		if draft.SaleAttempt != nil {
			merged = *draft.SaleAttempt
		}
		mergeField(&merged.ClientName, overlay.SaleAttempt.ClientName)
		mergeField(&merged.ContactInfo, overlay.SaleAttempt.ContactInfo)
		mergeField(&merged.Email, overlay.SaleAttempt.Email)
		out.SaleAttempt = &merged
	}

	if overlay.Inspection != nil {
		merged := InspectionDetails{}
		if draft.Inspection != nil {
			merged = *draft.Inspection
		}
		mergeField(&merged.RoofType, overlay.Inspection.RoofType)
		mergeField(&merged.ElectricalStandard, overlay.Inspection.ElectricalStandard)
		mergeField(&merged.Grounding, overlay.Inspection.Grounding)
		mergeField(&merged.Structure, overlay.Inspection.Structure)
		out.Inspection = &merged
	}

	if overlay.Installation != nil {
		merged := InstallationDetails{}
		if draft.Installation != nil {
			merged = *draft.Installation
		}
		mergeField(&merged.Structure, overlay.Installation.Structure)
		mergeField(&merged.Grounding, overlay.Installation.Grounding)
		mergeField(&merged.FacadePhoto, overlay.Installation.FacadePhoto)
		out.Installation = &merged
	}

	return out
}

func mergeField(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
