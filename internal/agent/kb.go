package agent

import "github.com/avaldez/sqlquest/internal/domain"

// defaultKnowledgeBase returns the course knowledge base: short, focused
// documents covering the topics the assistant is allowed to answer about.
func defaultKnowledgeBase() []domain.KnowledgeDoc {
	return []domain.KnowledgeDoc{
		{
			ID: "sql_basics",
			Content: "Conceitos básicos de SQL: SELECT, FROM, WHERE, GROUP BY, ORDER BY, " +
				"JOIN entre tabelas, chaves primárias e estrangeiras, filtros e agregações.",
		},
		{
			ID: "medallion",
			Content: "Arquitetura Medallion: Bronze (dados crus), Prata (dados tratados e padronizados), " +
				"Ouro (dados agregados e modelados para análise de negócio).",
		},
		{
			ID: "star_schema",
			Content: "Star Schema é um modelo dimensional com uma tabela fato central ligada a " +
				"tabelas dimensão ao redor. Tabelas fato possuem métricas numéricas e chaves " +
				"para dimensões como produto, tempo e campanha.",
		},
		{
			ID: "snowflake_schema",
			Content: "Snowflake Schema é uma variação do Star Schema em que dimensões são " +
				"normalizadas em múltiplas tabelas, reduzindo redundância, mas aumentando " +
				"a complexidade das consultas.",
		},
		{
			ID: "dim_fato",
			Content: "Tabelas dimensão armazenam contexto descritivo (produtos, clientes, campanhas). " +
				"Tabelas fato armazenam métricas (vendas, cliques, impressões, gastos), " +
				"geralmente com granularidade no tempo.",
		},
		{
			ID: "course_context",
			Content: "Cenário do curso: agência de marketing que gerencia campanhas de uma empresa " +
				"de bebidas. Tabelas: dim_produto, dim_campanha e fato_marketing.",
		},
	}
}
