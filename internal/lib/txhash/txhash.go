// Package txhash генерирует синтетические хэши транзакций песочницы.
package txhash

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// New возвращает случайный 32-байтный хэш в виде 0x-строки. Хэш не выводится
// из содержимого транзакции.
func New() (string, error) {
	const op = "txhash.New"
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return "0x" + hex.EncodeToString(buf[:]), nil
}
