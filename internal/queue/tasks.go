package queue

const (
	TypeRfqExtract   = "rfq:extract"
	TypeOrderExtract = "order:extract"
	TypeMailPoll     = "mail:poll"
	TypeSamSync      = "samgov:sync"
	TypeLinkRepair   = "workflow:link_repair"
)

type RfqExtractPayload struct {
	DocumentID string `json:"document_id"`
}

type OrderExtractPayload struct {
	OrderID string `json:"order_id"`
}
