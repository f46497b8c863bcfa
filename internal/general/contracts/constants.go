package contracts

// Exchanges
const (
	ExchangeDriverTopic = "driver_topic"
)

// Queues
const (
	QueueDriverJournal = "driver_journal"
)

// Routing patterns
const (
	RouteDriverStatusPrefix     = "driver.status."     // {ONLINE|OFFLINE}
	RouteDriverTripPrefix       = "driver.trip."       // {checkpoint}
	RouteDriverConnectionPrefix = "driver.connection." // {state}
)
