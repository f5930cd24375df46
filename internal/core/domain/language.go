package domain

// Language is the locale tag used when rendering a diagnosis. Cosmetic;
// it never influences classification.
type Language string

const (
	LangEnglish  Language = "en"
	LangThai     Language = "th"
	LangChinese  Language = "zh"
	LangJapanese Language = "ja"
)

func ParseLanguage(raw string) Language {
	switch Language(raw) {
	case LangThai:
		return LangThai
	case LangChinese:
		return LangChinese
	case LangJapanese:
		return LangJapanese
	default:
		return LangEnglish
	}
}
