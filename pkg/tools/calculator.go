package tools

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/server"
	"github.com/richard-senior/mcp/pkg/toolkit"
)

// CalculatorArgs is the input schema for the calculator tool.
type CalculatorArgs struct {
	Expression string `json:"expression" jsonschema:"description=A simple arithmetic expression of the form number operator number separated by spaces such as 2 + 2 or 4 * 6"`
}

// CalculatorResult is what the calculator tool returns.
type CalculatorResult struct {
	Result     float64 `json:"result"`
	Expression string  `json:"expression"`
}

// Calculator adapts a simple arithmetic evaluator into an MCP tool.
func Calculator() (protocol.Tool, server.ToolHandler) {
	tool, handler, err := toolkit.New(toolkit.Definition{
		Name:        "calculator",
		Description: "A simple calculator that can perform basic arithmetic operations",
	}, handleCalculator)
	if err != nil {
		logger.Fatal("building calculator tool:", err)
	}
	return tool, handler
}

func handleCalculator(ctx *server.ToolContext, args CalculatorArgs) (CalculatorResult, error) {
	result, err := calculateResult(args.Expression)
	if err != nil {
		return CalculatorResult{}, err
	}
	logger.Info("calculated", args.Expression, "=", result)
	return CalculatorResult{Result: result, Expression: args.Expression}, nil
}

// calculateResult performs a simple calculation based on the input expression
func calculateResult(expression string) (float64, error) {
	expression = strings.TrimSpace(expression)

	parts := strings.Fields(expression)
	if len(parts) != 3 {
		return 0, fmt.Errorf("expression must be in format 'number operator number'")
	}

	num1, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid first number: %v", err)
	}

	operator := parts[1]

	num2, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid second number: %v", err)
	}

	var result float64
	switch operator {
	case "+":
		result = num1 + num2
	case "-":
		result = num1 - num2
	case "*":
		result = num1 * num2
	case "/":
		if num2 == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		result = num1 / num2
	default:
		return 0, fmt.Errorf("unsupported operator: %s", operator)
	}

	return result, nil
}
