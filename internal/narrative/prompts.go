package narrative

import (
	"fmt"
	"strings"
)

const insightsPrompt = "You are a personal finance assistant.\n\n" +
	"Task:\n" +
	"- Read the user's financial facts below.\n" +
	"- Write ONE short, encouraging and specific insight about their finances.\n" +
	"- Only use numbers that appear in the facts. Do not invent accounts, merchants or amounts.\n\n" +
	"Output a JSON object with exactly these fields:\n" +
	"- \"title\": string, at most 60 characters\n" +
	"- \"description\": string, one to three sentences\n"

const budgetPrompt = "You are a budgeting assistant.\n\n" +
	"Task:\n" +
	"- Read the user's monthly income, expenses per category, current budgets and goals below.\n" +
	"- Recommend a monthly budget allocation that keeps spending below income and funds the goals.\n\n" +
	"Output a JSON object with exactly these fields:\n" +
	"- \"budgets\": array of objects with \"category\" (string), \"amount\" (number >= 0, monthly) " +
	"and \"percentage\" (number between 0 and 100, share of monthly income)\n" +
	"- \"rationale\": string explaining the allocation in two or three sentences\n" +
	"- \"expectedOutcomes\": array of short strings\n"

const outputRules = "\nRules:\n" +
	"Return ONLY valid raw JSON.\n" +
	"Do NOT wrap the response in code fences.\n" +
	"Output must begin with \"{\" and end with \"}\".\n"

// buildPrompt renders the instructions for a task followed by its facts.
func buildPrompt(task Task, facts []byte) (string, error) {
	var b strings.Builder
	switch task {
	case TaskInsights:
		b.WriteString(insightsPrompt)
	case TaskBudgetOptimization:
		b.WriteString(budgetPrompt)
	default:
		return "", fmt.Errorf("buildPrompt: unknown task %q", task)
	}
	b.WriteString(outputRules)
	b.WriteString("\nFacts:\n")
	b.Write(facts)
	b.WriteString("\n")
	return b.String(), nil
}
