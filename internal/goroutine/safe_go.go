package goroutine

import (
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/artistapp-backend/internal/logger"
)

// SafeGo запускает горутину с обработкой panic, чтобы паника в фоновой
// задаче (уведомления, письма, насос сокета) не роняла процесс.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil && logger.Log != nil {
				logger.Log.WithFields(logrus.Fields{
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("Panic in goroutine")
			}
		}()
		fn()
	}()
}
