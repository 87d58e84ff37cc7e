package language

// Lexicon scores text against marker words of a single language.
type Lexicon struct {
	Language string
	terms    [][]string
}

// NewLexicon builds a lexicon for lang. Markers may be multi-word phrases.
func NewLexicon(lang string, markers ...string) *Lexicon {
	l := &Lexicon{Language: lang}
	for _, m := range markers {
		if ws := words(normalize(m)); len(ws) > 0 {
			l.terms = append(l.terms, ws)
		}
	}
	return l
}

// Matches counts the markers present in text as whole words or phrases.
func (l *Lexicon) Matches(text string) int {
	ws := words(normalize(text))
	n := 0
	for _, term := range l.terms {
		if containsTerm(ws, term) {
			n++
		}
	}
	return n
}

// SpanishMarkers is the built-in fallback lexicon.
var SpanishMarkers = NewLexicon(Spanish,
	"recordar", "comprar", "regalo", "cumpleaños", "mamá", "cuyo", "octubre",
	"para", "con", "del", "la", "el", "de", "en", "es", "está",
	"llamar", "fin de semana", "este", "esta", "estoy", "tengo", "necesito",
	"quiero", "voy a", "trabajo", "casa", "familia",
	"reunión", "proyecto", "equipo", "tarea", "importante", "urgente",
	"mañana", "hoy", "semana", "mes", "año", "tiempo", "dinero", "salud",
	"amor", "feliz", "triste", "preocupado", "estresado", "ocupado",
)
