package domain

import "fmt"

// ClinicalInsights is the language-model narrative attached to a case
// after creation. Advisory text only; never part of the lifecycle rules.
type ClinicalInsights struct {
	ContextualSummary     string   `json:"contextual_summary"`
	DifferentialDiagnosis []string `json:"differential_diagnosis"`
	RecommendedNextSteps  []string `json:"recommended_next_steps"`
	ClinicalRisks         []string `json:"clinical_risks"`
}

// FallbackInsights synthesizes deterministic insights when the language
// model is unreachable, so a case never stays without a narrative.
func FallbackInsights(fractureType FractureType, confidence float64, lang Language) ClinicalInsights {
	percent := int(confidence*100 + 0.5)

	if lang == LangThai {
		return ClinicalInsights{
			ContextualSummary: fmt.Sprintf("การวิเคราะห์เบื้องต้นพบความเสี่ยงระดับ %d%% สำหรับ %s", percent, fractureType),
			DifferentialDiagnosis: []string{
				"การบาดเจ็บของเนื้อเยื่ออ่อนร่วมด้วย",
				"ภาวะกระดูกช้ำ (Bone Bruise)",
				"รอยร้าวขนาดเล็กที่อาจมองไม่เห็น",
			},
			RecommendedNextSteps: []string{
				"ประเมินความมั่นคงของข้อต่อ",
				"พิจารณาการส่งตรวจ CT Scan หากอาการไม่ดีขึ้น",
				"ปรึกษาแพทย์เฉพาะทางด้านออร์โธปิดิกส์",
			},
			ClinicalRisks: []string{
				"ความเสี่ยงต่อภาวะแทรกซ้อนของเส้นประสาท",
				"ภาวะบวมน้ำในเนื้อเยื่อ",
			},
		}
	}

	return ClinicalInsights{
		ContextualSummary:     fmt.Sprintf("Preliminary clinical analysis for %s with %d%% confidence.", fractureType, percent),
		DifferentialDiagnosis: []string{"Soft tissue injury", "Bone bruise", "Occult fracture"},
		RecommendedNextSteps:  []string{"Assess joint stability", "Consider CT Scan if symptoms persist", "Orthopedic specialist consultation"},
		ClinicalRisks:         []string{"Potential nerve involvement", "Soft tissue edema"},
	}
}
