package correlation

// personAliases maps common nicknames to the canonical given name they
// stand for. Only PERSON entities consult this table -- spec.md limits
// alias folding to people, since nickname collisions are far more likely to
// be false positives for organizations and projects.
var personAliases = map[string]string{
	"mike":   "michael",
	"mikey":  "michael",
	"bob":    "robert",
	"bobby":  "robert",
	"rob":    "robert",
	"robbie": "robert",
	"bill":   "william",
	"billy":  "william",
	"will":   "william",
	"liam":   "william",
	"dick":   "richard",
	"rick":   "richard",
	"ricky":  "richard",
	"rich":   "richard",
	"jim":    "james",
	"jimmy":  "james",
	"jamie":  "james",
	"joe":    "joseph",
	"joey":   "joseph",
	"dave":   "david",
	"davey":  "david",
	"tom":    "thomas",
	"tommy":  "thomas",
	"tony":   "anthony",
	"ed":     "edward",
	"eddie":  "edward",
	"ted":    "edward",
	"chuck":  "charles",
	"charlie": "charles",
	"andy":   "andrew",
	"drew":   "andrew",
	"matt":   "matthew",
	"dan":    "daniel",
	"danny":  "daniel",
	"nick":   "nicholas",
	"alex":   "alexander",
	"sam":    "samuel",
	"sammy":  "samuel",
	"ben":    "benjamin",
	"benny":  "benjamin",
	"greg":   "gregory",
	"steve":  "steven",
	"pete":   "peter",
	"phil":   "philip",
	"fred":   "frederick",
	"ken":    "kenneth",
	"kenny":  "kenneth",
	"pat":    "patrick",
	"jen":    "jennifer",
	"jenny":  "jennifer",
	"liz":    "elizabeth",
	"beth":   "elizabeth",
	"eliza":  "elizabeth",
	"betty":  "elizabeth",
	"kate":   "katherine",
	"katie":  "katherine",
	"kathy":  "katherine",
	"maggie": "margaret",
	"meg":    "margaret",
	"peggy":  "margaret",
	"sue":    "susan",
	"suzy":   "susan",
	"deb":    "deborah",
	"debbie": "deborah",
	"barb":   "barbara",
	"cindy":  "cynthia",
	"becky":  "rebecca",
	"abby":   "abigail",
	"vicky":  "victoria",
}

// resolveAlias returns the alias target for a normalized PERSON surface form,
// or the form itself if no alias applies.
func resolveAlias(normalized string) string {
	if canonical, ok := personAliases[normalized]; ok {
		return canonical
	}
	return normalized
}
