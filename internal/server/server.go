package server

// Server объединяет специфичные HTTP сервера. Оценка и системные ручки
// (health, cache) разнесены по своим серверам.
type Server struct {
	ValuationServer
	SystemServer
}

func NewServer(
	valuationServer ValuationServer,
	systemServer SystemServer,
) Server {
	return Server{
		ValuationServer: valuationServer,
		SystemServer:    systemServer,
	}
}
