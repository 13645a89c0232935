package notify

import "log"

type Event string // Событие переговоров для внешних уведомлений

const (
	NegotiationRequested Event = "negotiation_requested" // Инициатор открыл сессию
	NegotiationResponded Event = "negotiation_responded" // Исполнитель ответил
	NegotiationResolved  Event = "negotiation_resolved"  // Сессия завершена
)

// Payload - произвольные данные события для внешнего получателя.
type Payload map[string]interface{}

// Notifier - интерфейс внешнего канала уведомлений (почта, вебхуки).
// Вызывается после перехода состояния; результат никогда не влияет
// на сам переход.
type Notifier interface {
	Notify(event Event, payload Payload) error
}

// LogNotifier пишет события в лог вместо внешней отправки.
type LogNotifier struct {
	Logger *log.Logger
}

// NewLogNotifier создает новый экземпляр LogNotifier.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{Logger: logger}
}

// Notify записывает событие в лог.
func (n *LogNotifier) Notify(event Event, payload Payload) error {
	n.Logger.Printf("notify %s: %v", event, payload)
	return nil
}

// Dispatch отправляет уведомление в отдельной горутине. Сбой отправки
// логируется и никогда не откатывает и не блокирует вызвавший его переход.
func Dispatch(notifier Notifier, logger *log.Logger, event Event, payload Payload) {
	if notifier == nil {
		return
	}
	go func() {
		if err := notifier.Notify(event, payload); err != nil {
			logger.Printf("notification %s failed: %v", event, err)
		}
	}()
}
