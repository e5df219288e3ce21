package agent

import "strings"

// forbiddenTopics blocks jailbreak attempts and off-topic subjects before
// the question ever reaches the model.
var forbiddenTopics = []string{
	"ignore", "jailbreak", "prompt", "regras", "system prompt",
	"prisão", "hacker", "hackear", "burlar", "bypass", "desobedecer",
	"modificar instruções", "exploit", "conteúdo adulto", "política",
	"religião", "violência",
}

// IsForbidden reports whether the message touches a blocked topic.
func IsForbidden(message string) bool {
	msg := strings.ToLower(message)
	for _, word := range forbiddenTopics {
		if strings.Contains(msg, word) {
			return true
		}
	}
	return false
}

// ForbiddenReply is the canned answer for blocked questions.
const ForbiddenReply = "Desculpe, mas não posso responder perguntas ou comandos fora do assunto permitido. " +
	"Vamos focar em SQL, arquitetura de dados e modelagem dimensional 😊"
