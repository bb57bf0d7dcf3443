package lexicon

import "strings"

// Lexicons are immutable, injectable phrase tables used by the classifier and
// the escalation router.
//
// Rules:
// - Matching is case-insensitive substring matching. Phrases must be declared
//   lower-case; callers lower-case the search buffer once.
// - Category declaration order is part of the contract: it is the tie-break
//   for intents and the priority order for sentiments and triggers.
// - No package-level mutable state. Tests and future tenant-specific phrase
//   sets construct their own Set.

// Category is one named phrase bucket.
type Category struct {
	Name    string
	Phrases []string
}

// Set groups every phrase table the decision engine consumes.
type Set struct {
	// Intents in declaration order; ties keep the first-declared category.
	Intents []Category

	// Sentiments in priority order; the first category with a match wins.
	Sentiments []Category

	// Labels; every matching category is included.
	Labels []Category

	// Triggers are escalation triggers in declaration order; the first
	// category with a match sets the escalation reason.
	Triggers []Category

	// BookingIntent phrases start or restart the booking flow.
	BookingIntent []string

	// HumanRequest phrases are explicit requests for a human operator.
	HumanRequest []string

	// AgentFailure phrases are scanned in the agent's own outbound replies
	// as a repeated-failure signal.
	AgentFailure []string
}

// MatchCount sums occurrences of every phrase in buf.
// buf must already be lower-cased.
func MatchCount(buf string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if p == "" {
			continue
		}
		n += strings.Count(buf, p)
	}
	return n
}

// Matches reports whether any phrase occurs in buf.
// buf must already be lower-cased.
func Matches(buf string, phrases []string) bool {
	for _, p := range phrases {
		if p == "" {
			continue
		}
		if strings.Contains(buf, p) {
			return true
		}
	}
	return false
}

// Default returns the built-in Spanish-first phrase set.
// Category names are stable contracts; the classifier maps them to enums.
func Default() Set {
	return Set{
		Intents: []Category{
			{Name: "greeting", Phrases: []string{
				"hola", "buenos días", "buenos dias", "buenas tardes", "buenas noches", "qué tal", "que tal", "hello",
			}},
			{Name: "ask_price", Phrases: []string{
				"precio", "cuánto cuesta", "cuanto cuesta", "cuánto vale", "cuanto vale", "costo", "tarifa", "cotización", "cotizacion", "how much",
			}},
			{Name: "product_info", Phrases: []string{
				"información", "informacion", "detalles", "características", "caracteristicas", "qué incluye", "que incluye", "cómo funciona", "como funciona", "more info",
			}},
			{Name: "book_appointment", Phrases: []string{
				"agendar", "cita", "reservar", "reunión", "reunion", "disponibilidad", "horario disponible", "appointment", "schedule a",
			}},
			{Name: "purchase_intent", Phrases: []string{
				"quiero comprar", "lo compro", "contratar", "dónde pago", "donde pago", "cómo pago", "como pago", "lo quiero",
			}},
			{Name: "complaint", Phrases: []string{
				"queja", "reclamo", "mal servicio", "pésimo", "pesimo", "inaceptable", "molesto", "molesta",
			}},
			{Name: "technical_support", Phrases: []string{
				"no funciona", "no sirve", "tengo un error", "tengo un problema", "falla", "soporte", "ayuda con",
			}},
			{Name: "cancellation", Phrases: []string{
				"cancelar", "dar de baja", "ya no quiero", "devolución", "devolucion", "reembolso",
			}},
			{Name: "farewell", Phrases: []string{
				"adiós", "adios", "hasta luego", "nos vemos", "gracias por todo", "bye",
			}},
		},
		Sentiments: []Category{
			{Name: "very_positive", Phrases: []string{
				"excelente", "increíble", "increible", "fantástico", "fantastico", "maravilloso", "me encanta",
			}},
			{Name: "positive", Phrases: []string{
				"gracias", "perfecto", "genial", "muy bien", "buenísimo", "buenisimo", "de acuerdo",
			}},
			{Name: "negative", Phrases: []string{
				"malo", "mala", "no me gusta", "decepcionado", "decepcionada", "muy lento", "demasiado caro",
			}},
			{Name: "very_negative", Phrases: []string{
				"terrible", "horrible", "pésimo", "pesimo", "nunca más", "nunca mas", "fatal",
			}},
			{Name: "frustrated", Phrases: []string{
				"estoy harto", "estoy harta", "es el colmo", "no puede ser", "otra vez lo mismo", "ya me cansé", "ya me canse", "cuántas veces", "cuantas veces",
			}},
		},
		Labels: []Category{
			{Name: "interested", Phrases: []string{
				"me interesa", "quiero saber más", "quiero saber mas", "suena bien", "me gustaría", "me gustaria", "quiero más información", "quiero mas informacion",
			}},
			{Name: "urgent", Phrases: []string{
				"urgente", "lo antes posible", "hoy mismo", "ya mismo", "cuanto antes", "emergencia",
			}},
			{Name: "price_sensitive", Phrases: []string{
				"muy caro", "descuento", "más barato", "mas barato", "promoción", "promocion", "rebaja", "mejor precio",
			}},
			{Name: "decision_maker", Phrases: []string{
				"soy el dueño", "soy la dueña", "soy el encargado", "soy la encargada", "yo decido", "soy el gerente de",
			}},
			{Name: "referral", Phrases: []string{
				"me recomendó", "me recomendo", "me recomendaron", "vengo de parte", "me hablaron de ustedes",
			}},
			{Name: "returning", Phrases: []string{
				"ya soy cliente", "compré antes", "compre antes", "la otra vez", "de nuevo con ustedes", "otra vez con ustedes",
			}},
			{Name: "competitor_mention", Phrases: []string{
				"la competencia", "otra empresa", "otro proveedor", "me ofrecen en",
			}},
		},
		Triggers: []Category{
			{Name: "complaint", Phrases: []string{
				"queja formal", "reclamo", "pésimo servicio", "pesimo servicio", "mal servicio", "inaceptable",
			}},
			{Name: "legal_threat", Phrases: []string{
				"demanda", "abogado", "profeco", "denuncia", "acciones legales",
			}},
			{Name: "cancellation_risk", Phrases: []string{
				"cancelar mi cuenta", "cancelar el servicio", "dar de baja", "me cambio a", "ya no quiero su",
			}},
			{Name: "billing_dispute", Phrases: []string{
				"me cobraron", "cobro indebido", "doble cargo", "no reconozco el cargo", "factura incorrecta",
			}},
		},
		BookingIntent: []string{
			"agendar", "cita", "reservar", "reunión", "reunion", "agenda una llamada", "disponibilidad", "horario disponible", "appointment", "book a",
		},
		HumanRequest: []string{
			"hablar con un humano", "hablar con una persona", "hablar con un agente", "hablar con un asesor", "hablar con un gerente", "hablar con alguien", "atención humana", "atencion humana", "pásame con", "pasame con", "talk to a human", "real person",
		},
		AgentFailure: []string{
			"no entiendo", "no puedo ayudar", "no tengo esa información",
		},
	}
}
