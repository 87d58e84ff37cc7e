package language

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PhraseBook is the offline translation strategy used when the backend
// cannot translate. Lookup reports false when nothing matched.
type PhraseBook interface {
	Lookup(text, source, target string) (string, bool)
}

// Table matches whole inputs exactly, ignoring case and surrounding space.
type Table map[string]string

func (t Table) Lookup(text, _, target string) (string, bool) {
	if target != English {
		return "", false
	}
	out, ok := t[normalize(text)]
	return out, ok
}

// NewTable normalizes keys so lookups are case- and accent-form-insensitive.
func NewTable(entries map[string]string) Table {
	t := make(Table, len(entries))
	for k, v := range entries {
		t[normalize(k)] = v
	}
	return t
}

// Rule translates any input containing every one of All.
type Rule struct {
	All         []string `yaml:"all"`
	Translation string   `yaml:"translation"`
}

// Rules are tried in order; the first rule whose substrings all occur wins.
type Rules []Rule

func (r Rules) Lookup(text, _, target string) (string, bool) {
	if target != English {
		return "", false
	}
	s := normalize(text)
outer:
	for _, rule := range r {
		if len(rule.All) == 0 {
			continue
		}
		for _, part := range rule.All {
			if !strings.Contains(s, normalize(part)) {
				continue outer
			}
		}
		return rule.Translation, true
	}
	return "", false
}

// Chain consults each book in order.
type Chain []PhraseBook

func (c Chain) Lookup(text, source, target string) (string, bool) {
	for _, b := range c {
		if b == nil {
			continue
		}
		if out, ok := b.Lookup(text, source, target); ok {
			return out, true
		}
	}
	return "", false
}

type phraseFile struct {
	Phrases map[string]string `yaml:"phrases"`
	Rules   []Rule            `yaml:"rules"`
}

// LoadPhraseBook reads a YAML phrase book:
//
//	phrases:
//	  "llamar a mamá": "call mom"
//	rules:
//	  - all: ["reunión", "urgente"]
//	    translation: "urgent meeting"
func LoadPhraseBook(path string) (PhraseBook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read phrase book: %w", err)
	}
	return ParsePhraseBook(data)
}

// ParsePhraseBook decodes the YAML phrase book format.
func ParsePhraseBook(data []byte) (PhraseBook, error) {
	var f phraseFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse phrase book: %w", err)
	}
	return Chain{NewTable(f.Phrases), Rules(f.Rules)}, nil
}

// BuiltinPhrases is the seed table for es, fr, de, it and pt.
var BuiltinPhrases = NewTable(map[string]string{
	"llamar a mamá este fin de semana": "call mom this weekend",
	"estoy estresado por el proyecto":  "i am stressed about the project",
	"necesito programar una reunión":   "i need to schedule a meeting",

	"agenda una reunión urgente con el equipo para revisar avances del proyecto": "schedule an urgent meeting with the team to review project progress",

	"tengo que trabajar mañana":    "i have to work tomorrow",
	"quiero ir al médico":          "i want to go to the doctor",
	"necesito comprar comida":      "i need to buy food",
	"tengo una cita importante":    "i have an important appointment",
	"estoy ocupado con el trabajo": "i am busy with work",
	"necesito descansar":           "i need to rest",
	"quiero aprender algo nuevo":   "i want to learn something new",
	"ejercitar hoy":                "exercise today",
	"limpiar la casa":              "clean the house",

	"recordar comprar regalo de cumpleaños para mamá cuyo cumpleaños es octubre 23": "remember to buy birthday gift for mom whose birthday is october 23",

	"se vendieron dos perros, agendar el despacho de uno mañana y otro el domingo": "two dogs were sold, schedule the delivery of one tomorrow and the other on sunday",

	"appeler maman ce weekend":                   "call mom this weekend",
	"je suis stressé par le projet":              "i am stressed about the project",
	"je dois programmer une réunion":             "i need to schedule a meeting",
	"je dois travailler demain":                  "i have to work tomorrow",
	"je veux aller chez le médecin":              "i want to go to the doctor",
	"je dois acheter de la nourriture":           "i need to buy food",
	"j'ai un rendez-vous important":              "i have an important appointment",
	"je suis occupé avec le travail":             "i am busy with work",
	"j'ai besoin de me reposer":                  "i need to rest",
	"je veux apprendre quelque chose de nouveau": "i want to learn something new",

	"mama dieses wochenende anrufen":       "call mom this weekend",
	"ich bin gestresst wegen des projekts": "i am stressed about the project",
	"ich muss ein treffen planen":          "i need to schedule a meeting",
	"ich muss morgen arbeiten":             "i have to work tomorrow",
	"ich will zum arzt gehen":              "i want to go to the doctor",
	"ich muss essen kaufen":                "i need to buy food",
	"ich habe einen wichtigen termin":      "i have an important appointment",
	"ich bin beschäftigt mit der arbeit":   "i am busy with work",
	"ich brauche ruhe":                     "i need to rest",
	"ich will etwas neues lernen":          "i want to learn something new",

	"chiamare mamma questo weekend":     "call mom this weekend",
	"sono stressato per il progetto":    "i am stressed about the project",
	"devo programmare una riunione":     "i need to schedule a meeting",
	"devo lavorare domani":              "i have to work tomorrow",
	"voglio andare dal dottore":         "i want to go to the doctor",
	"devo comprare cibo":                "i need to buy food",
	"ho un appuntamento importante":     "i have an important appointment",
	"sono occupato con il lavoro":       "i am busy with work",
	"ho bisogno di riposare":            "i need to rest",
	"voglio imparare qualcosa di nuovo": "i want to learn something new",

	"ligar para a mãe neste fim de semana": "call mom this weekend",
	"estou estressado com o projeto":       "i am stressed about the project",
	"preciso agendar uma reunião":          "i need to schedule a meeting",
	"tenho que trabalhar amanhã":           "i have to work tomorrow",
	"quero ir ao médico":                   "i want to go to the doctor",
	"preciso comprar comida":               "i need to buy food",
	"tenho um compromisso importante":      "i have an important appointment",
	"estou ocupado com o trabalho":         "i am busy with work",
	"preciso descansar":                    "i need to rest",
	"quero aprender algo novo":             "i want to learn something new",
})

// BuiltinRules are the Spanish substring heuristics, most specific first.
var BuiltinRules = Rules{
	{All: []string{"agenda", "reunión", "equipo"}, Translation: "schedule a meeting with the team"},
	{All: []string{"reunión", "urgente"}, Translation: "urgent meeting"},
	{All: []string{"proyecto", "avances"}, Translation: "project progress review"},
	{All: []string{"estoy", "estresado"}, Translation: "i am stressed"},
	{All: []string{"necesito", "reunión"}, Translation: "i need to schedule a meeting"},
	{All: []string{"tengo que", "trabajar"}, Translation: "i have to work"},
	{All: []string{"quiero", "médico"}, Translation: "i want to go to the doctor"},
	{All: []string{"necesito", "comprar"}, Translation: "i need to buy food"},
	{All: []string{"tengo", "cita"}, Translation: "i have an important appointment"},
	{All: []string{"estoy", "ocupado"}, Translation: "i am busy with work"},
	{All: []string{"necesito", "descansar"}, Translation: "i need to rest"},
	{All: []string{"quiero", "aprender"}, Translation: "i want to learn something new"},
}

// Builtin is the default phrase book: exact table, then rules.
var Builtin PhraseBook = Chain{BuiltinPhrases, BuiltinRules}
