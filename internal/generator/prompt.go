package generator

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/leapstack-labs/askql/pkg/dialect"
)

const explainSystemPrompt = "You are a SQL expert. Explain what the given SQL query does in one or two plain sentences " +
	"for a reader who does not know SQL. Reply with the explanation only."

// BuildPrompt renders the system and user prompts for one question.
// Tables appear in the order they first occur in schema.
func BuildPrompt(question string, schema []core.SchemaColumn, d *dialect.Dialect) (system, user string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a SQL expert. Translate the user's question into a single read-only %s query.\n", d.PromptName)
	sb.WriteString(`Respond with a JSON object of the form {"sql": "...", "explanation": "..."} and nothing else.` + "\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Produce exactly one SELECT statement (WITH ... SELECT is allowed) and no trailing semicolon.\n")
	sb.WriteString("- Never modify data or schema.\n")
	sb.WriteString("- Use only the tables and columns listed in the schema.\n")
	sb.WriteString(`- If the question cannot be answered from the schema, set "sql" to "" and say why in "explanation".` + "\n")
	for _, h := range d.Hints {
		sb.WriteString("- " + h + "\n")
	}
	system = sb.String()

	sb.Reset()
	sb.WriteString("Schema:\n")
	if len(schema) == 0 {
		sb.WriteString("(no tables)\n")
	}
	for _, table := range groupByTable(schema) {
		fmt.Fprintf(&sb, "table %s:\n", table.name)
		for _, c := range table.columns {
			fmt.Fprintf(&sb, "  - %s %s", c.ColumnName, c.DataType)
			if strings.EqualFold(c.IsNullable, "NO") {
				sb.WriteString(" NOT NULL")
			}
			sb.WriteString("\n")
		}
	}
	fmt.Fprintf(&sb, "\nQuestion: %s\n", strings.TrimSpace(question))
	user = sb.String()
	return system, user
}

type tableColumns struct {
	name    string
	columns []core.SchemaColumn
}

func groupByTable(schema []core.SchemaColumn) []tableColumns {
	var out []tableColumns
	index := make(map[string]int)
	for _, c := range schema {
		i, ok := index[c.TableName]
		if !ok {
			i = len(out)
			index[c.TableName] = i
			out = append(out, tableColumns{name: c.TableName})
		}
		out[i].columns = append(out[i].columns, c)
	}
	return out
}
