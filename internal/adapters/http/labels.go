package httpadapter

import "github.com/nattawat-k/fracture-triage/internal/core/domain"

// fractureLabels carries the display strings rendered alongside a case.
// Kept at the HTTP edge: the domain stores canonical category names only.
var fractureLabels = map[domain.FractureType]map[domain.Language]string{
	domain.FractureNormal: {
		domain.LangEnglish:  "No Fracture Detected",
		domain.LangThai:     "ไม่พบการหัก",
		domain.LangChinese:  "未检测到骨折",
		domain.LangJapanese: "骨折は検出されませんでした",
	},
	domain.FractureClavicle: {
		domain.LangEnglish:  "Clavicle Fracture",
		domain.LangThai:     "กระดูกไหปลาร้าหัก",
		domain.LangChinese:  "锁骨骨折",
		domain.LangJapanese: "鎖骨骨折",
	},
	domain.FractureHumerus: {
		domain.LangEnglish:  "Humerus Fracture",
		domain.LangThai:     "กระดูกต้นแขนหัก",
		domain.LangChinese:  "肱骨骨折",
		domain.LangJapanese: "上腕骨骨折",
	},
	domain.FractureRadiusUlna: {
		domain.LangEnglish:  "Radius/Ulna Fracture",
		domain.LangThai:     "กระดูกแขนข้อมือหัก",
		domain.LangChinese:  "桡骨/尺骨骨折",
		domain.LangJapanese: "橈骨/尺骨骨折",
	},
	domain.FractureMetacarpal: {
		domain.LangEnglish:  "Metacarpal Fracture",
		domain.LangThai:     "กระดูกฝ่ามือหัก",
		domain.LangChinese:  "掌骨骨折",
		domain.LangJapanese: "中手骨骨折",
	},
	domain.FractureFemur: {
		domain.LangEnglish:  "Femur Fracture",
		domain.LangThai:     "กระดูกต้นขาหัก",
		domain.LangChinese:  "股骨骨折",
		domain.LangJapanese: "大腿骨骨折",
	},
	domain.FracturePatella: {
		domain.LangEnglish:  "Patella Fracture",
		domain.LangThai:     "กระดูกสะบ้าหัก",
		domain.LangChinese:  "髌骨骨折",
		domain.LangJapanese: "膝蓋骨骨折",
	},
	domain.FractureTibiaFibula: {
		domain.LangEnglish:  "Tibia/Fibula Fracture",
		domain.LangThai:     "กระดูกแข้ง/น่องหัก",
		domain.LangChinese:  "胫骨/腓骨骨折",
		domain.LangJapanese: "脛骨/腓骨骨折",
	},
	domain.FractureAnkle: {
		domain.LangEnglish:  "Ankle Fracture",
		domain.LangThai:     "กระดูกข้อเท้าหัก",
		domain.LangChinese:  "踝骨骨折",
		domain.LangJapanese: "足首骨折",
	},
	domain.FractureCalcaneus: {
		domain.LangEnglish:  "Calcaneus Fracture",
		domain.LangThai:     "กระดูกส้นเท้าหัก",
		domain.LangChinese:  "跟骨骨折",
		domain.LangJapanese: "踵骨骨折",
	},
	domain.FractureMetatarsal: {
		domain.LangEnglish:  "Metatarsal Fracture",
		domain.LangThai:     "กระดูกฝ่าเท้าหัก",
		domain.LangChinese:  "跖骨骨折",
		domain.LangJapanese: "中足骨骨折",
	},
	domain.FractureVertebral: {
		domain.LangEnglish:  "Vertebral Fracture",
		domain.LangThai:     "กระดูกสันหลังหัก",
		domain.LangChinese:  "椎骨骨折",
		domain.LangJapanese: "椎骨骨折",
	},
	domain.FracturePelvic: {
		domain.LangEnglish:  "Pelvic Fracture",
		domain.LangThai:     "กระดูกเชิงกรานหัก",
		domain.LangChinese:  "骨盆骨折",
		domain.LangJapanese: "骨盤骨折",
	},
}

func fractureLabel(ft domain.FractureType, lang domain.Language) string {
	labels, ok := fractureLabels[ft]
	if !ok {
		return string(ft)
	}
	if label, ok := labels[lang]; ok {
		return label
	}
	return labels[domain.LangEnglish]
}
