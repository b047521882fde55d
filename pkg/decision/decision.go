// Package decision turns a PredictionResult into structured clinical
// guidance for the reviewing physician. It is a downstream consumer of
// the classification core: it reads the result and the optional patient
// context, never the pipeline internals, and adjusts fixed guideline
// tables rather than re-scoring anything.
package decision

import (
	"fmt"
	"strings"

	"brainradiomics/internal/models"
)

// Guidelines is the recommended clinical follow-up for one predicted
// category.
type Guidelines struct {
	Imaging     []string
	Referrals   []string
	Monitoring  []string
	NextSteps   []string
	Urgency     string
	RiskFactors []string
}

var guidelinesByClass = [models.NumClasses]Guidelines{
	models.ClassGlioma: {
		Imaging: []string{
			"Contrast MRI (T1, T2, FLAIR, DWI)",
			"MR spectroscopy for metabolic characterization",
			"Perfusion MRI for vascularity assessment",
			"Functional MRI if eloquent location",
		},
		Referrals: []string{
			"Neurosurgeon (surgical evaluation)",
			"Medical oncologist (systemic treatment)",
			"Radiation oncologist (radiotherapy planning)",
			"Neurologist (symptomatic management)",
		},
		Monitoring: []string{
			"MRI surveillance every 3 months during the first year",
			"Monthly clinical evaluation",
			"Neuropsychological follow-up as needed",
			"Treatment side-effect monitoring",
		},
		NextSteps: []string{
			"Stereotactic biopsy for histological confirmation",
			"Surgical resectability assessment",
			"WHO grading (I-IV)",
			"Multidisciplinary treatment planning",
		},
		Urgency: "high",
		RiskFactors: []string{
			"Age over 60",
			"Tumor size over 5 cm",
			"Eloquent location",
			"Severe neurological symptoms",
		},
	},
	models.ClassMeningioma: {
		Imaging: []string{
			"Contrast MRI (T1, T2)",
			"High-resolution 3D MRI for surgical planning",
			"MR angiography for vascular assessment",
			"Bone CT if osseous extension is suspected",
		},
		Referrals: []string{
			"Neurosurgeon (resection evaluation)",
			"Radiation oncologist (if surgery is contraindicated)",
			"Neurologist (clinical follow-up)",
		},
		Monitoring: []string{
			"MRI surveillance every 6 months if asymptomatic",
			"Annual surveillance if small (under 2 cm)",
			"Quarterly clinical evaluation",
		},
		NextSteps: []string{
			"Complete resectability assessment (Simpson grade)",
			"Histological grading (I-III)",
			"Surgical planning if symptomatic",
			"Active surveillance if asymptomatic and small",
		},
		Urgency: "medium",
		RiskFactors: []string{
			"Size over 3 cm",
			"Peritumoral edema",
			"Neurological symptoms",
			"Parasagittal or skull-base location",
		},
	},
	models.ClassNotumor: {
		Imaging: []string{
			"No additional imaging needed if clinically reassuring",
			"Follow-up MRI in 6-12 months if symptoms persist",
			"Alternative workup according to symptoms",
		},
		Referrals: []string{
			"Neurologist (if symptoms persist)",
			"Psychiatrist (if functional disorder is suspected)",
		},
		Monitoring: []string{
			"Clinical follow-up according to symptoms",
			"Patient reassurance",
		},
		NextSteps: []string{
			"Patient reassurance",
			"Symptomatic treatment if needed",
			"Clinical follow-up according to evolution",
		},
		Urgency: "low",
	},
	models.ClassPituitary: {
		Imaging: []string{
			"High-resolution pituitary MRI (coronal and sagittal sequences)",
			"Dynamic contrast MRI",
			"Suprasellar extension assessment",
			"MR angiography for carotid relationship",
		},
		Referrals: []string{
			"Endocrinologist (complete hormonal workup)",
			"Neurosurgeon (transsphenoidal approach)",
			"Ophthalmologist (visual field assessment)",
			"Radiation oncologist (if incomplete resection)",
		},
		Monitoring: []string{
			"Complete hormone panel (prolactin, GH, ACTH, TSH, FSH, LH)",
			"Monthly visual fields if chiasm compression",
			"Control MRI 3 months post-operative",
			"Lifelong endocrine surveillance",
		},
		NextSteps: []string{
			"Complete hormonal workup (morning, fasting)",
			"Ophthalmological evaluation (acuity, visual field)",
			"Functional vs non-functional typing",
			"Surgical planning if needed",
		},
		Urgency: "medium",
		RiskFactors: []string{
			"Optic chiasm compression",
			"Hormonal deficit",
			"Size over 1 cm (macroadenoma)",
			"Visual symptoms",
		},
	},
}

// lowConfidence is the threshold below which a second opinion is
// explicitly recommended.
const lowConfidence = 0.5

// Recommend returns the clinical guidance for a prediction, adjusted
// for confidence and the supplied patient context. The input result is
// treated as read-only.
func Recommend(result *models.PredictionResult, patient models.PatientInfo) Guidelines {
	g := cloneGuidelines(guidelinesByClass[result.Label])

	if result.Confidence < lowConfidence {
		g.NextSteps = append([]string{
			"Low confidence: biopsy confirmation or second opinion recommended",
		}, g.NextSteps...)
	}

	if patient.Age > 0 {
		if patient.Age > 60 && result.Label == models.ClassGlioma {
			g.NextSteps = append(g.NextSteps, "Factor advanced age into treatment planning")
		}
		if patient.Age < 18 {
			g.Referrals = append(g.Referrals, "Pediatric neuro-oncology specialist")
		}
	}

	for _, symptom := range patient.Symptoms {
		s := strings.ToLower(symptom)
		if strings.Contains(s, "seizure") || strings.Contains(s, "convulsion") {
			g.NextSteps = append(g.NextSteps, "EEG evaluation and antiepileptic treatment")
		}
		if strings.Contains(s, "visual") || strings.Contains(s, "vision") {
			g.Referrals = append(g.Referrals, "Ophthalmologist (urgent evaluation)")
		}
	}
	return g
}

// RiskSummary renders the prediction as a one-line clinical risk
// statement, with an age note when relevant.
func RiskSummary(result *models.PredictionResult, patient models.PatientInfo) string {
	ageNote := ""
	if patient.Age > 60 {
		ageNote = " (age is a risk factor)"
	} else if patient.Age > 0 && patient.Age < 18 {
		ageNote = " (pediatric: specialized care needed)"
	}

	switch result.Label {
	case models.ClassGlioma:
		return "High Risk - Glioma suspected (aggressive type)" + ageNote
	case models.ClassMeningioma:
		return "Medium Risk - Meningioma suspected (usually benign)" + ageNote
	case models.ClassPituitary:
		return "Medium Risk - Pituitary tumor suspected (often treatable)" + ageNote
	case models.ClassNotumor:
		if result.Confidence > 0.4 {
			return "Low Risk - No tumor detected" + ageNote
		}
	}
	return "Uncertain - Further evaluation recommended" + ageNote
}

// PatientContext renders the supplied patient information for reports.
func PatientContext(patient models.PatientInfo) string {
	var parts []string
	if patient.Age > 0 {
		parts = append(parts, fmt.Sprintf("Age: %d", patient.Age))
	}
	if patient.Sex != "" {
		parts = append(parts, "Sex: "+patient.Sex)
	}
	if len(patient.Symptoms) > 0 {
		parts = append(parts, "Symptoms: "+strings.Join(patient.Symptoms, ", "))
	}
	if len(parts) == 0 {
		return "No additional context"
	}
	return strings.Join(parts, " | ")
}

func cloneGuidelines(g Guidelines) Guidelines {
	out := g
	out.Imaging = append([]string(nil), g.Imaging...)
	out.Referrals = append([]string(nil), g.Referrals...)
	out.Monitoring = append([]string(nil), g.Monitoring...)
	out.NextSteps = append([]string(nil), g.NextSteps...)
	out.RiskFactors = append([]string(nil), g.RiskFactors...)
	return out
}
