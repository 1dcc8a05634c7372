package vars

import (
	"os"
	"time"
)

// GetEnv returns the environment variable value, or fallback when unset.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

const (
	// Model names
	NOMIC      = "nomic-embed-text"
	DEEPSEEKR1 = "deepseek-r1:1.5b"
	QWEN3B     = "qwen2.5:3b"

	// Milvus collection for embedded historical assessments
	COLLECTION = "loan_assessments_v1"

	// ES index for rendered assessment reports
	REPORTINDEX = "loan_reports_v1"

	// Similarity retrieval settings
	SIMILARITY_FLOOR = 0.6
	TOP_K_SIMILAR    = 3

	// Generation settings
	GEN_TEMPERATURE      = 0.3
	FEEDBACK_TEMPERATURE = 0.2
	GEN_NUM_CTX          = 4096
	GEN_TIMEOUT          = 120 * time.Second

	// Per-indicator score above which a risk factor is quoted in historical context
	MATERIAL_SCORE = 10.0

	// Analysis type tags
	ANALYSIS_BASIC      = "basic"
	ANALYSIS_CONTEXTUAL = "contextual"
	ANALYSIS_FALLBACK   = "fallback"
)

// Environment configuration (Docker friendly)
var (
	// LLM backend: "ollama" (default) or "openai"
	LLM_BACKEND = GetEnv("LLM_BACKEND", "ollama")
	OLLAMA_PATH = GetEnv("OLLAMA_PATH", "http://localhost:11434")
	OPENAI_KEY  = GetEnv("OPENAI_API_KEY", "")
	OPENAI_URL  = GetEnv("OPENAI_BASE_URL", "")
	CHAT_MODEL  = GetEnv("CHAT_MODEL", DEEPSEEKR1)
	EMBED_MODEL = GetEnv("EMBED_MODEL", NOMIC)

	// PG
	PGUSER = GetEnv("PGUSER", "root")
	PGPWD  = GetEnv("PGPWD", "root")
	PGDB   = GetEnv("PGDB", "loanriskDB")
	PGHOST = GetEnv("PGHOST", "localhost")
	PGPORT = GetEnv("PGPORT", "5432")

	// Milvus
	MILVUSADDR = GetEnv("MILVUSADDR", "127.0.0.1:19530")

	// ES
	ESADDR = GetEnv("ESADDR", "http://localhost:9200")

	// Core banking service
	LOAN_API_URL  = GetEnv("LOAN_API_URL", "http://localhost:8080/credit-service/loans/find-pagination")
	UDF_API_URL   = GetEnv("UDF_API_URL", "http://localhost:8080/credit-service/udf-links/find-udf-groupby/")
	LOAN_API_AUTH = GetEnv("LOAN_API_AUTH", "")

	// Local configuration files
	RULES_FILE    = GetEnv("RULES_FILE", "Data/KYC.LOV.csv")
	BUSINESS_FILE = GetEnv("BUSINESS_FILE", "Data/business_rules.yaml")

	LISTEN_ADDR = GetEnv("LISTEN_ADDR", ":8081")
)

// Prompt templates (rendered with text/template)
const (
	// BASIC_ANALYSIS asks for a structured assessment of one application.
	BASIC_ANALYSIS = `
You are a senior financial risk analyst with 15 years of experience in commercial banking.
Conduct a professional assessment of this loan application, focusing on:

1. Data consistency and red flags
2. Financial capacity and repayment ability
3. Risk factor correlations
4. Profile vs purpose alignment

Respond with VALID JSON only following the exact structure below.

=== APPLICATION DETAILS ===

**Customer Profile:**
- Name: {{.Name}}
- Age: {{.Age}}
- Gender: {{.Gender}}
- Marital Status: {{.MaritalStatus}}

**Financial Details:**
- Loan Amount: {{.LoanAmount}} {{.Currency}}
- Personal Contribution: {{.PersonalContribution}} {{.Currency}}
- Monthly Payment: {{.MonthlyPayment}} {{.Currency}}
- Assets Value: {{.AssetsTotal}} {{.Currency}}
- APR: {{.APR}}%
- Interest Rate: {{.InterestRate}}%
- Term: {{.TermMonths}} months

**Risk Assessment:**
Total Score: {{.TotalScore}}
{{.RiskTable}}

**Additional Information:**
{{.UDFBlock}}

=== REQUIRED ANALYSIS ===

1. **Professional Assessment** (5-7 sentences):
   - Overall risk evaluation
   - Key strengths and weaknesses
   - Financial capacity analysis

2. **Hidden Risks**:
   - Any non-obvious risk factors
   - Potential fraud indicators
   - Overleveraging concerns

3. **Data Mismatches**:
   - Inconsistencies in provided information
   - Conflicts between profile and purpose
   - Unusual patterns in supplementary data

=== RESPONSE FORMAT ===
{
    "summary": "Comprehensive professional assessment covering all key aspects",
    "recommendation": "approve|deny|review",
    "rationale": [
        "Primary reason for recommendation",
        "Supporting evidence from data",
        "Risk/benefit analysis"
    ],
    "key_findings": [
        "Specific finding 1 with impact analysis",
        "Specific finding 2 with impact analysis"
    ],
    "conditions": [
        "Specific condition 1 if approving",
        "Verification needed if reviewing"
    ],
    "data_mismatches": [
        "Notable inconsistency 1 between fields",
        "Notable inconsistency 2 between fields"
    ]
}
`

	// CONTEXT_SUFFIX extends the basic prompt with retrieved historical cases.
	CONTEXT_SUFFIX = `

=== HISTORICAL CONTEXT ===

Consider these similar historical cases in your analysis:
{{.HistoricalContext}}

=== COMPARATIVE ANALYSIS FOCUS ===

1. Significant deviations from historical patterns (>20% difference)
2. Emerging risks not present in historical cases
3. Improved risk factors compared to history
4. Consistency with past decision patterns

=== UPDATED RESPONSE FORMAT ===
Add this field to your JSON response:
{
    "comparative_analysis": [
        "Key difference 1 with historical context",
        "Key difference 2 with trend analysis"
    ]
}

Maintain all other fields from the basic analysis format.
`

	// FEEDBACK_SUMMARY condenses recorded analyst feedback into actionable points.
	FEEDBACK_SUMMARY = `Extract actionable insights from these loan assessment feedback entries:

{{.Entries}}

Provide 3-5 concise bullet points of improvements to apply to future analyses:`
)
