package ner

import (
	"regexp"
	"strings"

	"github.com/excavator/excavator/internal/catalog"
)

// techVocabulary is a fixed list of technology terms recognized regardless
// of whether a neural Recognizer is configured, matching the always-on
// detector spec.md §4.3 step 4 requires. Terms are intentionally broad
// (languages, frameworks, infra, protocols) rather than scoped to any one
// of the correlation engine's expertise domains.
var techVocabulary = []string{
	"Python", "Go", "Golang", "Rust", "JavaScript", "TypeScript", "Java",
	"Kotlin", "Swift", "Ruby", "PHP", "C\\+\\+", "C#", "Scala", "Elixir",
	"Docker", "Kubernetes", "Terraform", "Ansible", "Jenkins", "GitHub Actions",
	"AWS", "GCP", "Azure", "Postgres", "PostgreSQL", "MySQL", "SQLite",
	"MongoDB", "Redis", "Kafka", "RabbitMQ", "gRPC", "REST", "GraphQL",
	"React", "Vue", "Angular", "Django", "Flask", "FastAPI", "Spring",
	"TensorFlow", "PyTorch", "scikit-learn", "Pandas", "NumPy",
	"Linux", "Nginx", "Prometheus", "Grafana", "Elasticsearch",
	"HIPAA", "GDPR", "SOC2", "OAuth", "JWT", "TLS", "SSH",
}

// TechTermDetector matches a fixed vocabulary of technology terms via
// case-insensitive whole-word regex matching.
type TechTermDetector struct {
	re    *regexp.Regexp
	terms []string
}

// NewTechTermDetector compiles the built-in vocabulary into a single
// alternation regex.
func NewTechTermDetector() *TechTermDetector {
	escaped := make([]string, len(techVocabulary))
	copy(escaped, techVocabulary)
	pattern := `(?i)\b(` + strings.Join(escaped, "|") + `)\b`
	return &TechTermDetector{re: regexp.MustCompile(pattern), terms: techVocabulary}
}

func (d *TechTermDetector) Recognize(text string) []Mention {
	matches := d.re.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Mention, 0, len(matches))
	for _, m := range matches {
		out = append(out, Mention{
			SurfaceForm: text[m[0]:m[1]],
			Type:        catalog.EntityTech,
			Offset:      m[0],
			Confidence:  0.9,
		})
	}
	return out
}
