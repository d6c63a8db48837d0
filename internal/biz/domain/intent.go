package domain

// Intent is what a customer message asks the bot for
type Intent string

const (
	IntentKhumicSheet  Intent = "khumic_sheet"
	IntentSeaweedSheet Intent = "seaweed_sheet"
	IntentSheets       Intent = "sheets"
	IntentHandoff      Intent = "handoff"
	IntentMenu         Intent = "menu"
	IntentProducts     Intent = "products"
	IntentCatalogue    Intent = "catalogue"
	IntentPrices       Intent = "prices"
	IntentLocation     Intent = "location"
	IntentUnknown      Intent = "unknown"
)
