package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create conversations table
			CREATE TABLE conversations (
				id VARCHAR(255) PRIMARY KEY,
				messages JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_conversations_updated_at ON conversations(updated_at);

			-- Create action_log table
			CREATE TABLE action_log (
				id VARCHAR(255) PRIMARY KEY,
				conversation_id VARCHAR(255),
				tool VARCHAR(255) NOT NULL,
				input JSONB,
				output TEXT,
				error TEXT,
				executed_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_action_log_conversation_id ON action_log(conversation_id);
			CREATE INDEX idx_action_log_executed_at ON action_log(executed_at);

			-- Create analyses table
			CREATE TABLE analyses (
				id UUID PRIMARY KEY,
				trigger_type VARCHAR(50) NOT NULL CHECK (trigger_type IN ('manual', 'scheduled')),
				summary TEXT NOT NULL,
				entity_count INT NOT NULL DEFAULT 0,
				unavailable_count INT NOT NULL DEFAULT 0,
				error_log_line_count INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_analyses_created_at ON analyses(created_at);
		`,
	}
}
