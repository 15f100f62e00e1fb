package ai

import (
	"encoding/json"
	"strings"
)

// fieldNames lists the keys every provider reply must carry, in schema order.
var fieldNames = []string{
	"nota_final",
	"c1_score",
	"c2_score",
	"c3_score",
	"c4_score",
	"c5_score",
	"feedback_detalhado",
}

// providerSchema is the structured-output contract sent to providers that accept a JSON Schema.
// Bounds are checked locally by responseSchema since not every provider accepts them.
var providerSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["nota_final", "c1_score", "c2_score", "c3_score", "c4_score", "c5_score", "feedback_detalhado"],
  "properties": {
    "nota_final": {"type": "integer"},
    "c1_score": {"type": "integer"},
    "c2_score": {"type": "integer"},
    "c3_score": {"type": "integer"},
    "c4_score": {"type": "integer"},
    "c5_score": {"type": "integer"},
    "feedback_detalhado": {"type": "string"}
  }
}`)

func graderSystemPrompt() string {
	return "Você é um corretor de redações especialista na metodologia do ENEM. " +
		"Sua única tarefa é avaliar a redação recebida e devolver notas e um feedback estruturado. " +
		"Responda exclusivamente com um objeto JSON, sem nenhum texto antes ou depois."
}

func buildUserPrompt(input ScoreInput) string {
	builder := strings.Builder{}
	builder.WriteString("Regras de pontuação (0 a 200 para cada competência, em níveis de 40: 0, 40, 80, 120, 160 ou 200):\n")
	builder.WriteString("- C1: Domínio da norma-padrão da língua escrita.\n")
	builder.WriteString("- C2: Compreensão da proposta e aplicação de conceitos de várias áreas do conhecimento.\n")
	builder.WriteString("- C3: Seleção, organização e interpretação de fatos, opiniões e argumentos.\n")
	builder.WriteString("- C4: Conhecimento dos mecanismos linguísticos de coesão.\n")
	builder.WriteString("- C5: Proposta de intervenção completa (agente, ação, meio, efeito e detalhamento).\n")
	builder.WriteString("\nA nota final (nota_final) é exatamente a soma de C1 a C5.\n")

	if topic := strings.TrimSpace(input.Topic); topic != "" {
		builder.WriteString("\n## Tema\n")
		builder.WriteString(topic)
		builder.WriteString("\n")
	}

	builder.WriteString("\n## Redação\n---\n")
	builder.WriteString(input.Text)
	builder.WriteString("\n---\n")
	builder.WriteString("\nDevolva um JSON com os campos ")
	builder.WriteString(strings.Join(fieldNames, ", "))
	builder.WriteString(". Os campos de nota são inteiros; feedback_detalhado resume pontos fortes e fracos de cada competência, com quebras de linha.")
	return builder.String()
}
