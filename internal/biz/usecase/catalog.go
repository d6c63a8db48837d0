package usecase

import (
	"strconv"
	"strings"
)

// Catalog holds every canned text the bot sends.
// Templates support {{slot}}, {{code}}, {{name}}, {{phone}}, {{text}},
// {{count}} and {{pending}} placeholders.
type Catalog struct {
	// Customer-facing
	Menu           string
	Products       string
	Catalogue      string
	Prices         string
	Location       string
	Sheets         string
	KhumicCaption  string
	SeaweedCaption string
	NotAvailable   string
	Fallback       string
	HandoffStart   string
	HandoffBusy    string
	HandoffEnd     string
	HandoffTimeout string

	// Agent-facing
	AgentNewHandoff   string
	AgentForward      string
	AgentReminder     string
	AgentAutoClosed   string
	AgentCapacityFull string
	AgentListHeader   string
	AgentListEmpty    string
	AgentHelp         string
	AgentUse          string
	AgentWho          string
	AgentWhoNone      string
	AgentStop         string
	AgentClosedEnd    string
	AgentClosedBot    string
	AgentNotActive    string
	AgentSent         string
	AgentSendFailed   string
	AgentSlotEmpty    string
	AgentUnknown      string
	AgentNoActive     string
}

// DefaultCatalog contains the built-in Spanish texts
var DefaultCatalog = Catalog{
	Menu: "👋 ¡Hola! Bienvenido a *Pro Campo*.\n" +
		"Escribe el número de la opción:\n\n" +
		"1️⃣ Productos\n2️⃣ Catálogo\n3️⃣ Precios\n4️⃣ Ubicación\n5️⃣ Hablar con un asesor\n6️⃣ Fichas técnicas\n\n" +
		"Escribe *0* o *menu* para volver aquí.",
	Products: "🌱 *Productos Pro Campo*\n\n" +
		"• Khumic-100: ácidos húmicos + fúlvicos\n" +
		"• Seaweed 800: extracto de algas marinas\n\n" +
		"Escribe *6* para ver las fichas técnicas.",
	Catalogue: "📘 Nuestro catálogo completo está disponible con un asesor. Escribe *5* para hablar con uno.",
	Prices:    "💲 Los precios dependen del volumen y la zona. Escribe *5* y un asesor te enviará una cotización.",
	Location:  "📍 Atendemos en todo Ecuador con envíos a domicilio. Escribe *5* para coordinar con un asesor.",
	Sheets: "📑 *Fichas técnicas disponibles*\nEscribe:\n\n" +
		"• ficha 100 → Khumic-100\n• ficha seaweed → Seaweed 800",
	KhumicCaption:  "📄 Ficha técnica de Khumic-100 (ácidos húmicos + fúlvicos).",
	SeaweedCaption: "📄 Ficha técnica de Seaweed 800 (algas marinas).",
	NotAvailable:   "⚠️ Ese documento no está disponible en este momento. Escribe *5* para hablar con un asesor.",
	Fallback:       "🤔 No entendí tu mensaje. Escribe *menu* para ver las opciones.",
	HandoffStart:   "🙋 Un asesor te atenderá en breve. Tu ticket es *#{{code}}*.",
	HandoffBusy:    "⏳ Todos nuestros asesores están ocupados. Por favor intenta de nuevo en unos minutos.",
	HandoffEnd:     "🙏 Gracias por contactar a Pro Campo. Si necesitas algo más escribe *menu*.",
	HandoffTimeout: "⌛ Cerramos esta conversación por inactividad. Escribe *menu* cuando nos necesites.",

	AgentNewHandoff:   "🆕 [slot {{slot}} · #{{code}}] {{name}} ({{phone}}) pide un asesor:\n{{text}}",
	AgentForward:      "[slot {{slot}} · #{{code}}] {{name}}: {{text}}",
	AgentReminder:     "⏰ [slot {{slot}} · #{{code}}] {{name}} espera respuesta ({{count}} sin leer):\n{{pending}}",
	AgentAutoClosed:   "💤 [slot {{slot}} · #{{code}}] {{name}} cerrado por inactividad.",
	AgentCapacityFull: "🚫 Sin slots libres: #{{code}} {{name}} ({{phone}}) no pudo ser asignado.",
	AgentListHeader:   "📋 Conversaciones activas:",
	AgentListEmpty:    "📋 No hay conversaciones activas.",
	AgentHelp: "Comandos:\n" +
		"• chats | list → conversaciones activas\n" +
		"• use N | use #CODE → seleccionar\n" +
		"• who → ticket seleccionado\n" +
		"• stop → deseleccionar\n" +
		"• N texto → responder al slot N\n" +
		"• r #CODE texto | r N texto | r texto → responder\n" +
		"• N? → detalle del slot\n" +
		"• end [N|#CODE] → cerrar y agradecer\n" +
		"• bot [N|#CODE] → devolver al bot",
	AgentUse:        "✅ Seleccionado [slot {{slot}} · #{{code}}] {{name}}",
	AgentWho:        "👉 Seleccionado [slot {{slot}} · #{{code}}] {{name}}",
	AgentWhoNone:    "👉 Ningún ticket seleccionado.",
	AgentStop:       "⏹️ Selección borrada.",
	AgentClosedEnd:  "✅ #{{code}} {{name}} cerrado (slot {{slot}} libre).",
	AgentClosedBot:  "🤖 #{{code}} {{name}} devuelto al bot (slot {{slot}} libre).",
	AgentNotActive:  "ℹ️ #{{code}} {{name}} no está en atención.",
	AgentSent:       "✓ enviado a [slot {{slot}} · #{{code}}]",
	AgentSendFailed: "❌ No se pudo enviar a #{{code}}: {{text}}",
	AgentSlotEmpty:  "❌ El slot {{slot}} está vacío.",
	AgentUnknown:    "❌ Ticket #{{code}} no existe.",
	AgentNoActive:   "❌ No hay ticket seleccionado. Usa *use N* o indica el slot.",
}

// Vars are placeholder values for Render
type Vars struct {
	Slot    int
	Code    string
	Name    string
	Phone   string
	Text    string
	Count   int
	Pending string
}

// Render replaces placeholders in template
func Render(template string, v Vars) string {
	slot := ""
	if v.Slot > 0 {
		slot = strconv.Itoa(v.Slot)
	}
	return strings.NewReplacer(
		"{{slot}}", slot,
		"{{code}}", v.Code,
		"{{name}}", v.Name,
		"{{phone}}", v.Phone,
		"{{text}}", v.Text,
		"{{count}}", strconv.Itoa(v.Count),
		"{{pending}}", v.Pending,
	).Replace(template)
}
