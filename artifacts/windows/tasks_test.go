package windows

import "testing"

const sampleTaskXML = `<?xml version="1.0" encoding="UTF-16"?>
<Task xmlns="http://schemas.microsoft.com/windows/2004/02/mit/task">
  <RegistrationInfo>
    <Author>Contoso\alice</Author>
  </RegistrationInfo>
  <Settings>
    <Enabled>true</Enabled>
  </Settings>
  <Actions>
    <Exec>
      <Command>C:\Windows\System32\cmd.exe</Command>
      <Arguments>/c whoami</Arguments>
    </Exec>
  </Actions>
</Task>`

func TestParseScheduledTask(t *testing.T) {
	task, err := ParseScheduledTask("UpdateCheck", []byte(sampleTaskXML))
	if err != nil {
		t.Fatalf("ParseScheduledTask: %v", err)
	}
	if task.Author != `Contoso\alice` {
		t.Fatalf("author = %q", task.Author)
	}
	if !task.Enabled {
		t.Fatal("expected task to be enabled")
	}
	if task.Command != `C:\Windows\System32\cmd.exe` {
		t.Fatalf("command = %q", task.Command)
	}
	if task.Args != "/c whoami" {
		t.Fatalf("args = %q", task.Args)
	}
}
