package models

const (
	// KeyOrders хранит сериализованную последовательность заказов
	KeyOrders = "orders"

	// KeyCustomItems хранит добавленные пользователем позиции меню
	KeyCustomItems = "customItems"
)

const (
	// MenuResourcePath путь, по которому отдается файл меню
	MenuResourcePath = "/listofitems.txt"

	// WorkerQueueSize размер очереди воркера экспорта
	WorkerQueueSize = 128

	// RateLimitBurst значение burst по умолчанию для API
	RateLimitBurst = 5
)
