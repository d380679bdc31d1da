package correlation

// expertiseDomains maps a named domain of work to the vocabulary of TECH
// entity surface forms (normalized, lowercase) that indicate it. Used by the
// expertise detector to score each consolidated PERSON entity's density and
// diversity of mentions against each domain.
var expertiseDomains = map[string][]string{
	"backend": {
		"go", "golang", "java", "rust", "postgresql", "postgres", "mysql",
		"grpc", "kafka", "redis", "docker", "kubernetes", "microservices",
	},
	"frontend": {
		"react", "vue", "angular", "typescript", "javascript", "css",
		"webpack", "next.js", "tailwind", "html", "svelte",
	},
	"data": {
		"python", "pandas", "spark", "airflow", "sql", "bigquery",
		"snowflake", "dbt", "jupyter", "numpy", "tensorflow", "pytorch",
	},
	"infrastructure": {
		"terraform", "ansible", "aws", "gcp", "azure", "kubernetes",
		"docker", "prometheus", "grafana", "helm", "ci/cd", "jenkins",
	},
	"mobile": {
		"swift", "kotlin", "android", "ios", "react native", "flutter",
		"xcode", "objective-c",
	},
	"security": {
		"oauth", "tls", "penetration testing", "siem", "vulnerability",
		"firewall", "encryption", "iam", "zero trust",
	},
}
