package vision

import (
	"fmt"

	"github.com/JaimeStill/tally/internal/workflow"
)

const classifySystem = `You classify photos of Peruvian household utility receipts.

Answer with exactly one label:
- WATER: a water bill (for example Emapica or Sedapal).
- ELECTRICITY: an electricity bill (for example ElectroDunas or Luz del Sur).
- GAS: a natural gas bill (for example Contugas or Calidda).
- INVALID: anything else, or a receipt you cannot identify with high confidence.

Respond with a JSON object: {"label": "<LABEL>"}. Do not add any other text.`

const classifyUser = "Classify this image."

const extractSystem = `You read the payment details from a photo of a %s utility receipt.

Respond with a JSON object with these keys:
- "total_amount": the total amount due as a number, without currency symbols.
- "due_date": the payment due date formatted dd/mm/yyyy.
- "billing_period": the consumption or billing period as printed on the receipt.
- "provider_name": the name of the company that issued the receipt.

Use an empty string for any value you cannot read. Do not add any other text.`

const extractUser = "Extract the payment details from this receipt."

func extractPrompt(c workflow.Classification) string {
	return fmt.Sprintf(extractSystem, c.Noun())
}
