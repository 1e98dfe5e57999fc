package gloss

// builtinDictionaries holds the high-value classroom vocabulary shipped with
// the binary. Larger dictionaries are loaded from JSON files at startup.
var builtinDictionaries = map[string]map[string]string{
	// Arabic
	"ar": {
		"book":         "كتاب",
		"pen":          "قلم",
		"paper":        "ورقة",
		"teacher":      "معلم",
		"student":      "طالب",
		"class":        "فصل",
		"school":       "مدرسة",
		"read":         "اقرأ",
		"write":        "اكتب",
		"listen":       "استمع",
		"open":         "افتح",
		"close":        "أغلق",
		"sit":          "اجلس",
		"stand":        "قف",
		"number":       "رقم",
		"word":         "كلمة",
		"sentence":     "جملة",
		"page":         "صفحة",
		"question":     "سؤال",
		"answer":       "جواب",
		"help":         "مساعدة",
		"please":       "من فضلك",
		"thank you":    "شكرا",
		"yes":          "نعم",
		"no":           "لا",
		"good":         "جيد",
		"great":        "عظيم",
		"try":          "حاول",
		"again":        "مرة أخرى",
		"fraction":     "كسر",
		"whole number": "عدد صحيح",
		"represents":   "يمثل",
	},
	// Ukrainian
	"uk": {
		"book":     "книга",
		"pen":      "ручка",
		"paper":    "папір",
		"teacher":  "вчитель",
		"student":  "учень",
		"class":    "клас",
		"school":   "школа",
		"read":     "читати",
		"write":    "писати",
		"listen":   "слухати",
		"open":     "відкрити",
		"close":    "закрити",
		"sit":      "сидіти",
		"stand":    "стояти",
		"number":   "число",
		"word":     "слово",
		"sentence": "речення",
		"page":     "сторінка",
		"question": "питання",
		"answer":   "відповідь",
	},
	// Spanish
	"es": {
		"book":     "libro",
		"pen":      "bolígrafo",
		"paper":    "papel",
		"teacher":  "maestro",
		"student":  "estudiante",
		"class":    "clase",
		"school":   "escuela",
		"read":     "leer",
		"write":    "escribir",
		"listen":   "escuchar",
		"open":     "abrir",
		"close":    "cerrar",
		"sit":      "sentarse",
		"stand":    "pararse",
		"number":   "número",
		"word":     "palabra",
		"sentence": "oración",
		"page":     "página",
		"question": "pregunta",
		"answer":   "respuesta",
	},
	// Chinese (Simplified)
	"zh": {
		"book":     "书",
		"pen":      "笔",
		"paper":    "纸",
		"teacher":  "老师",
		"student":  "学生",
		"class":    "班级",
		"school":   "学校",
		"read":     "读",
		"write":    "写",
		"listen":   "听",
		"open":     "打开",
		"close":    "关闭",
		"sit":      "坐",
		"stand":    "站",
		"number":   "数字",
		"word":     "词",
		"sentence": "句子",
		"page":     "页",
		"question": "问题",
		"answer":   "答案",
	},
	// Tagalog
	"tl": {
		"book":    "libro",
		"pen":     "panulat",
		"paper":   "papel",
		"teacher": "guro",
		"student": "estudyante",
		"class":   "klase",
		"school":  "paaralan",
		"read":    "magbasa",
		"write":   "magsulat",
		"listen":  "makinig",
		"open":    "buksan",
		"close":   "isara",
	},
	// Punjabi
	"pa": {
		"book":    "ਕਿਤਾਬ",
		"pen":     "ਕਲਮ",
		"paper":   "ਕਾਗਜ਼",
		"teacher": "ਅਧਿਆਪਕ",
		"student": "ਵਿਦਿਆਰਥੀ",
		"school":  "ਸਕੂਲ",
		"read":    "ਪੜ੍ਹੋ",
		"write":   "ਲਿਖੋ",
		"listen":  "ਸੁਣੋ",
	},
}
