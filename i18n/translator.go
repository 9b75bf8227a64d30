package i18n

import "strings"

// Translator retrieves localized messages for issue codes.
// data provides optional metadata to embed in the message (for example,
// "field" or "entity").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg := t.lookup(code)
	if f := data["field"]; f != "" {
		msg += " (" + f + ")"
	}
	return msg
}

func (t dictTranslator) lookup(code string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "malformed_input":
			return "入力が不正です"
		case "empty_dataset":
			return "有効な星系がありません"
		case "too_large":
			return "入力が大きすぎます"
		case "missing_required_field":
			return "必須フィールドが不足しています"
		case "invalid_field_type":
			return "フィールドの型または値が不正です"
		case "conflicting_encoding":
			return "表現が競合しています"
		case "unknown_enum_value":
			return "未知の列挙値です"
		case "cardinality_exceeded":
			return "天体数の上限を超えました"
		case "duplicate_name":
			return "名前が重複しています"
		case "duplicate_key":
			return "キーが重複しています"
		case "derivation_skipped":
			return "導出値を計算できません"
		}
	default: // "en"
		switch code {
		case "malformed_input":
			return "malformed input"
		case "empty_dataset":
			return "no valid system in dataset"
		case "too_large":
			return "input too large"
		case "missing_required_field":
			return "required field missing"
		case "invalid_field_type":
			return "invalid field type or value"
		case "conflicting_encoding":
			return "conflicting encodings"
		case "unknown_enum_value":
			return "unknown enum value"
		case "cardinality_exceeded":
			return "too many bodies"
		case "duplicate_name":
			return "duplicate name"
		case "duplicate_key":
			return "duplicate key"
		case "derivation_skipped":
			return "derived value unavailable"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
