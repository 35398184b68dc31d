package verify

import (
	"strings"
	"unicode"
)

var genericPhrases = map[string]bool{
	"oke": true, "ok": true, "baik": true, "ya": true, "halo": true, "hai": true,
	"selamat pagi": true, "selamat siang": true, "selamat sore": true, "selamat malam": true,
	"selamat datang": true, "terima kasih": true, "sama-sama": true, "silakan": true,
	"monggo": true, "gimana": true, "apa kabar": true,
}

// fillerTokens are words that carry no content on their own. Evidence made
// only of them ("Oke baik", "Iya iya betul") is treated as generic.
var fillerTokens = map[string]bool{
	"oke": true, "okay": true, "ok": true, "baik": true, "ya": true, "iya": true, "yaa": true,
	"yup": true, "sip": true, "siap": true, "halo": true, "hallo": true, "hai": true, "hi": true,
	"hello": true, "hmm": true, "hm": true, "em": true, "eh": true, "oh": true, "ah": true,
	"nah": true, "terima": true, "kasih": true, "makasih": true, "thanks": true, "thank": true,
	"you": true, "sama-sama": true, "silakan": true, "monggo": true, "gimana": true,
	"apa": true, "kabar": true, "selamat": true, "pagi": true, "siang": true, "sore": true,
	"malam": true, "datang": true, "betul": true, "benar": true, "good": true, "morning": true,
}

var introPhrases = []string{"nama saya", "saya adalah", "perkenalkan", "kenalkan", "mr.", "ms."}

var introWords = map[string]bool{"tutor": true, "teacher": true, "guru": true}

var introSubjects = []string{"greet", "introduce", "perkenalkan", "salam", "sapa"}

// Category is a topic with known vocabulary. If any trigger word appears in
// a claim's subject, the evidence must contain at least one term.
type Category struct {
	Name     string
	Triggers []string
	Terms    []string
}

var categories = []Category{
	{
		Name:     "age",
		Triggers: []string{"age", "umur", "usia", "grade", "kelas", "tahun"},
		Terms:    []string{"umur", "usia", "tahun", "kelas", "grade", "sd", "smp", "sma", "tk", "years", "age"},
	},
	{
		Name:     "interests",
		Triggers: []string{"interest", "interests", "like", "likes", "suka", "hobi", "kesukaan", "favorite", "minat"},
		Terms:    []string{"suka", "hobi", "main", "game", "olahraga", "favorit", "senang", "minat", "like"},
	},
	{
		Name:     "concerns",
		Triggers: []string{"concern", "concerns", "challenge", "masalah", "khawatir", "kesulitan", "tantangan"},
		Terms:    []string{"khawatir", "masalah", "kesulitan", "concern", "tantangan", "susah", "kurang", "sulit"},
	},
	{
		Name:     "goals",
		Triggers: []string{"goal", "goals", "tujuan", "harapan", "ingin", "mau"},
		Terms:    []string{"tujuan", "harapan", "ingin", "mau", "supaya", "agar", "bisa", "goal", "pengen"},
	},
	{
		Name:     "experience",
		Triggers: []string{"experience", "pengalaman", "pernah", "sudah"},
		Terms:    []string{"pernah", "sudah", "pengalaman", "biasa", "sering", "belum"},
	},
}

// Satisfied reports whether evidence mentions any of the category terms.
func (c Category) Satisfied(evidence string) bool {
	lower := strings.ToLower(evidence)
	for _, term := range c.Terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// TriggeredCategories returns the categories whose trigger words appear as
// whole words in subject.
func TriggeredCategories(subject string) []Category {
	words := make(map[string]bool)
	for _, w := range tokens(subject) {
		words[w] = true
	}
	var out []Category
	for _, cat := range categories {
		for _, tr := range cat.Triggers {
			if words[tr] {
				out = append(out, cat)
				break
			}
		}
	}
	return out
}

// IsGeneric reports whether evidence is a filler or acknowledgment phrase.
func IsGeneric(evidence string) bool {
	norm := strings.TrimRight(strings.ToLower(strings.TrimSpace(evidence)), ".!?,")
	if genericPhrases[norm] {
		return true
	}
	toks := tokens(norm)
	if len(toks) == 0 {
		return true
	}
	for _, t := range toks {
		if !fillerTokens[t] {
			return false
		}
	}
	return true
}

// IsSelfIntroduction reports whether evidence is the speaker introducing themselves.
func IsSelfIntroduction(evidence string) bool {
	lower := strings.ToLower(evidence)
	for _, p := range introPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	for _, w := range tokens(lower) {
		if introWords[w] {
			return true
		}
	}
	return false
}

// HasGreetingPrefix reports whether evidence opens with a greeting or acknowledgment.
func HasGreetingPrefix(evidence string) bool {
	lower := strings.ToLower(strings.TrimSpace(evidence))
	for _, p := range []string{"oke,", "ok,", "baik,", "ya,", "halo,", "hai,", "selamat pagi", "selamat siang", "selamat datang", "terima kasih"} {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func aboutIntroduction(subject string) bool {
	lower := strings.ToLower(subject)
	for _, s := range introSubjects {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// tokens lowercases s and splits it into words. Hyphens stay inside words.
func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}
