package prompt

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	contractx "github.com/finnieassistant/finnie/agent/contract"
)

//go:embed template/*.txt
var templates embed.FS

// Agent pairs a system prompt (role, goal, backstory) with a task template.
// Task templates use FString variables such as {query}.
type Agent struct {
	System string
	Task   string
}

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Classifier Agent
	Stock      Agent
	Portfolio  Agent
	Coach      Agent
}

// LoadPromptSet returns the embedded prompts. When overrideDir is set, any
// <agent>_system.txt or <agent>_task.txt found there replaces the embedded one.
func LoadPromptSet(overrideDir string) (PromptSet, error) {
	load := func(agent contractx.AgentType) (Agent, error) {
		system, err := readTemplate(overrideDir, string(agent)+"_system.txt")
		if err != nil {
			return Agent{}, err
		}
		task, err := readTemplate(overrideDir, string(agent)+"_task.txt")
		if err != nil {
			return Agent{}, err
		}
		return Agent{System: system, Task: task}, nil
	}

	var (
		set PromptSet
		err error
	)
	if set.Classifier, err = load(contractx.AgentTypeClassifier); err != nil {
		return PromptSet{}, err
	}
	if set.Stock, err = load(contractx.AgentTypeStock); err != nil {
		return PromptSet{}, err
	}
	if set.Portfolio, err = load(contractx.AgentTypePortfolio); err != nil {
		return PromptSet{}, err
	}
	if set.Coach, err = load(contractx.AgentTypeCoach); err != nil {
		return PromptSet{}, err
	}
	return set, nil
}

func readTemplate(overrideDir, name string) (string, error) {
	if dir := strings.TrimSpace(overrideDir); dir != "" {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		switch {
		case err == nil:
			return nonEmpty(name, string(raw))
		case !errors.Is(err, os.ErrNotExist):
			return "", fmt.Errorf("read prompt override %s: %w", name, err)
		}
	}

	raw, err := templates.ReadFile("template/" + name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", contractx.ErrPromptMissing, name)
	}
	return nonEmpty(name, string(raw))
}

func nonEmpty(name, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s is empty", contractx.ErrPromptMissing, name)
	}
	return trimmed, nil
}
