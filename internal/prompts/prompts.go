// Package prompts holds the fixed instruction text, canned queries, and
// seed workspace content used by the conversation pipeline.
package prompts

import (
	"fmt"
	"time"

	"alphavault-backend/internal/models"
)

// SystemInstruction is the default analyst persona applied to every chat
// call unless a caller overrides it.
const SystemInstruction = `
ROLE: Senior Investment Banking Analyst (TMT / M&A Focus).
OBJECTIVE: Analyze proprietary financial documents to provide accurate, sourced, and high-context answers.

### CORE BEHAVIORS (v1.2.1):

1. **Deep Context Awareness (Critical)**:
   - Treat this as a continuous conversation, not isolated queries.
   - **Implied Subjects**: If the user asks "What about them?", "Are they profitable?", or "Did we reach out?", you MUST infer the entity from the *immediately preceding* interaction.
   - **Follow-up Logic**: If a user refines a question (e.g., "and for Q3?"), apply that constraint to the previously discussed topic.

2. **Fuzzy Entity Matching**:
   - Users often use shorthand or have typos (e.g., "pai" = "Pi Ventures", "chiratae" = "Chiratae Ventures", "sequoia" = "Sequoia Capital").
   - **Action**: Automatically infer the correct entity based on phonetics and context found in the documents.
   - **Do NOT** say "I cannot find 'pai'". Instead, say "Assuming you refer to 'Pi Ventures' found in the outreach tracker..."

3. **Data Synthesis**:
   - **Excel/CSV Handling**: Aggressively scan tabular data. Treat row headers as entities and column headers as metrics.
   - **Cross-Referencing**: If one doc has "Revenue" and another has "Deal Status", combine them into a single answer.

4. **Negative Constraints**:
   - If information is truly missing after fuzzy matching, say: "Based on the provided deal room data, I cannot find specific details on [Topic]."

### TONE & FORMAT:
- **Executive Summary Style**: High density, low fluff.
- **Source Citations**: Always cite the filename, e.g., "Revenue grew 20% YoY [[Source: FY23_Financials.xlsx]]."
- **Tables**: Use Markdown tables for all financial comparisons.
`

// WelcomeMessage seeds every new session's conversation.
const WelcomeMessage = "# AlphaVault Team Terminal (v1.3.0)\n\nI am online and secure. The workspace is currently empty.\n\n**To begin analysis:**\n1. Connect **Google Drive** (Left Sidebar) to import Deal Room folders.\n2. Or upload local PDFs/Excel files.\n\nOnce data is loaded, I can perform cross-file analysis, financial summarization, and risk assessment."

// FallbackResponse replaces an empty provider reply so the conversation
// never shows a blank model turn.
const FallbackResponse = "I analyzed the data but could not generate a text response."

// TurnFailureMessage is appended when a chat turn fails for reasons the
// error classifier could not make more specific.
const TurnFailureMessage = "I encountered an issue connecting to the AlphaVault secure core. Please try again."

// NoActiveDocumentsNotice refuses shortcut queries on an empty context.
const NoActiveDocumentsNotice = "No documents are active. Activate at least one document in the deal room before running this analysis."

// MissingKeyMessage is shown when a turn is attempted without a credential.
const MissingKeyMessage = "⚠️ **Configuration Error:** No Gemini API Key found.\n\nOpen the credential settings and paste your API Key to enable AI features."

// chartDirective is appended to the instruction envelope only when the
// caller wants a chart spec back.
const chartDirective = `
  After your full written analysis, append a fenced json code block at the VERY END of the answer containing a single object of the form {"chart": {"type": "bar"|"line"|"area", "title": string, "data": [{"name": string, <series>: number, ...}], "dataKeys": [<series names>]}}. Do not announce, explain, or reference this block in your prose.`

// WrapQuery wraps the user's literal query in the instruction envelope.
// The envelope steers fuzzy entity matching and anaphora resolution; the
// chart directive rides along only when requested.
func WrapQuery(query string, withChart bool) string {
	envelope := `
  [INSTRUCTION: Use the provided documents and conversation history to answer. Handle spelling mistakes intelligently (fuzzy match). If the user refers to previous topics, use the history context.`
	if withChart {
		envelope += chartDirective
	}
	envelope += `]

  User Query: ` + query + `
  `
	return envelope
}

// ExtractionPrompt builds the strict-JSON extraction task for the given
// free-text field specification.
func ExtractionPrompt(fields string) string {
	return fmt.Sprintf(`
    Analyze the provided documents.
    Task: Extract the following fields into a strictly formatted JSON array.
    Fields to Extract: %s

    Output Requirement:
    - Return ONLY a JSON array of objects.
    - Each object should represent a row (e.g., a year, a quarter, or a company).
    - Normalize number formats (remove commas/currency symbols).
    - If data is missing, use null or "N/A".
  `, fields)
}

// SynthesisQuery collapses the active documents into one dense memo that
// replaces them as context.
const SynthesisQuery = `Produce a dense, structured synthesis of ALL the provided documents. Capture every material fact: entities, financial metrics with units and periods, dates, deal terms, risks, and open items. Organize with markdown headings by theme and cite source filenames. This summary will replace the source documents as conversation context, so completeness matters more than brevity.`

// Canned shortcut queries. Each runs through the normal turn pipeline.
const (
	RiskScanQuery = `Perform a comprehensive risk scan across the active documents. Identify financial, legal, and operational red flags, rank them by severity, and cite the source document for each finding.`

	MemoDraftQuery = `Draft a concise investment committee memo from the active documents: Executive Summary, Key Financials, Strategic Rationale, Risks, and Recommendation. Use markdown headings and tables where appropriate.`

	TrendChartQuery = `Identify the most decision-relevant quantitative trend across the active documents and walk through what drives it.`
)

// EstimateTokens is a cheap local heuristic (~4 characters per token)
// used to report payload size, not to enforce limits.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// SeedDocuments returns the starter deal room content for a new session.
func SeedDocuments() []models.Document {
	return []models.Document{
		{
			ID:   "doc-1",
			Name: "Q3_2024_Tech_Sector_Outlook.pdf",
			Type: "PDF",
			Content: `
SECTOR REPORT: TECHNOLOGY, MEDIA, & TELECOM (TMT)
Quarter: Q3 2024
Author: AlphaVault Research Division

1. MACROECONOMIC OVERVIEW
The technology sector showed resilience in Q3 despite lingering inflation concerns.
Aggregate revenue for the S&P 500 Tech Index grew by 8.4% YoY, beating estimates of 6.2%.
Key Drivers:
- AI Infrastructure spending (up 45% YoY)
- Cloud Services stabilization
- Enterprise Software renewal rates holding steady at 92%

2. SUB-SECTOR PERFORMANCE
- Semiconductors: Outperformed broader market (+12%). Demand for GPU clusters remains the primary catalyst.
- Software: Mixed results. Cybersecurity spending remains robust, but seat-based SaaS pricing is under pressure.
- Hardware: Consumer electronics demand remains soft, down 2% YoY.

3. VALUATION METRICS
- Sector Forward P/E: 24x (vs 5-year avg of 22x)
- EV/Sales: 6.5x
- Free Cash Flow Yield: 3.8%

4. OUTLOOK
We maintain an OVERWEIGHT rating on Semiconductors and Data Center infrastructure.
We downgrade Consumer Hardware to NEUTRAL due to lack of near-term catalysts.
    `,
			IsInlineData: false,
			MimeType:     "application/pdf",
			Category:     models.CategoryMarket,
			UploadDate:   time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:   "doc-2",
			Name: "Project_Titan_Merger_Memo.txt",
			Type: "TXT",
			Content: `CONFIDENTIAL MEMORANDUM
TO: Investment Committee
FROM: TMT Coverage Team
DATE: Oct 10, 2024
SUBJECT: Project Titan - Potential Acquisition Target

1. EXECUTIVE SUMMARY
Titan Corp represents a strategic consolidation opportunity in the cloud infrastructure space.
They specialize in "Edge Compute Optimization" - a critical growth vertical.
Current valuation trading at 12x EBITDA, below peer average of 15x.

2. KEY FINANCIALS (LTM)
- Revenue: $450M (CAGR 18%)
- EBITDA: $99M (22% margin)
- Net Debt/EBITDA: 3.5x (Deleveraging from 4.5x in FY22)
- Capex Intensity: 12% of Revenue

3. SYNERGIES
- Cost Synergies: Est. $30M annually via headcount rationalization and shared HQ costs.
- Revenue Synergies: Cross-selling Titan's Edge product to our Enterprise client base could yield $50M+ by Year 2.

4. RISKS
- Customer Concentration: Top 3 clients account for 40% of revenue.
- Tech Debt: Older stack requires $15M modernization investment.
    `,
			IsInlineData: false,
			MimeType:     "text/plain",
			Category:     models.CategoryMemo,
			UploadDate:   time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:   "doc-3",
			Name: "Global_Energy_Transition_Report.txt",
			Type: "TXT",
			Content: `GLOBAL ENERGY TRANSITION 2024
Focus: Renewable Infrastructure Financing

1. MARKET TRENDS
Capital deployment in renewable energy projects reached $1.1T in 2023.
Solar PV remains the dominant technology, accounting for 60% of new capacity.

2. REGULATORY HEADWINDS
- Grid interconnection delays in the US are averaging 18-24 months.
- EU supply chain due diligence laws are increasing compliance costs for battery importers.

3. INVESTMENT OPPORTUNITIES
- Battery Energy Storage Systems (BESS): Revenue arbitrage opportunities in volatile markets.
- Green Hydrogen: While promising, LCOE remains uncompetitive without significant subsidies ($3/kg target).

4. RISKS
- Interest Rate Sensitivity: High cost of capital is squeezing IRR for levered projects.
- Commodity Volatility: Lithium and Cobalt pricing instability affects project modeling.
    `,
			IsInlineData: false,
			MimeType:     "text/plain",
			Category:     models.CategoryFinancial,
			UploadDate:   time.Date(2024, 9, 20, 0, 0, 0, 0, time.UTC),
		},
	}
}
