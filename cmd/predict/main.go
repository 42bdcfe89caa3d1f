package main

import (
	"fmt"
	"log"
	"os"

	"stock-data-backend/internal/predictor"
)

func main() {
	ticker := "AAPL"
	if len(os.Args) > 1 {
		ticker = os.Args[1]
	}

	price, err := predictor.Predict(ticker)
	if err != nil {
		log.Fatalf("预测 %s 失败: %v", ticker, err)
	}

	fmt.Printf("Predicted price: %.2f\n", price)
}
