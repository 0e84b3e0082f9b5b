package usecase

// Canned user-facing texts. The bank's customer base is Spanish speaking;
// agent answers follow the user's language via the prompt instruction, these
// fixed messages stay in the product's default locale.
const (
	// ackMessage is sent immediately after validation to mask agent latency.
	ackMessage = "Ruffy recibió tu mensaje (procesando)..."

	// authRedirectMessage replaces the agent response for users without an
	// active session.
	authRedirectMessage = "Buenos días! Gracias por comunicarte con Rufus Bank.\n" +
		"Para proceder, debes autenticarte: - https://auth.rufusbank.com"

	// fallbackMessage replaces the agent response after all attempts fail.
	fallbackMessage = "Rufus Bank tuvo un pequeño ruffy-problema. Por favor repite el mensaje..."

	// authResumeMessage greets a user right after their session is created.
	authResumeMessage = "Te autenticaste exitosamente con Ruffy. ¿Cómo puedo apoyarte hoy?"
)
