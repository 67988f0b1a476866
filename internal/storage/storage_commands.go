package storage

const CommandsTable = "commands"

// CustomModule tags commands whose response is a stored template rather than
// code. The registry treats this module name as reserved.
const CustomModule = "custom"

// SaveCustomCommand stores or replaces a custom command's response template.
func (s *Storage) SaveCustomCommand(name, response string) error {
	return s.Set(CommandsTable, "response", response, Where{"name": name, "module": CustomModule})
}

// GetCustomCommand returns the stored response template for a custom command.
func (s *Storage) GetCustomCommand(name string) (string, bool, error) {
	v, found, err := s.Get(CommandsTable, "response", Where{"name": name, "module": CustomModule})
	if err != nil || !found {
		return "", false, err
	}
	return ToString(v), true, nil
}

// DeleteCustomCommand removes a custom command.
func (s *Storage) DeleteCustomCommand(name string) error {
	return s.DeleteRows(CommandsTable, Where{"name": name, "module": CustomModule})
}

// ListCustomCommands returns the names of all stored custom commands.
func (s *Storage) ListCustomCommands() ([]string, error) {
	rows, err := s.GetAll(CommandsTable)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, row := range rows {
		if ToString(row["module"]) == CustomModule {
			names = append(names, ToString(row["name"]))
		}
	}
	return names, nil
}
